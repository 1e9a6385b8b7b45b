package computervision

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceflow/internal/port"
)

type fakeOCR struct {
	got    []byte
	result computervision.OcrResult
}

func (f *fakeOCR) RecognizePrintedTextInStream(_ context.Context, _ bool, body io.ReadCloser, _ computervision.OcrLanguages) (computervision.OcrResult, error) {
	f.got, _ = io.ReadAll(body)
	return f.result, nil
}

func str(s string) *string { return &s }

func writePNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 200, G: 10, B: 10, A: 255})
	}
	path := filepath.Join(t.TempDir(), "receipt.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestAnalyzer_Analyze_ConvertsLines(t *testing.T) {
	words := []computervision.OcrWord{{Text: str("Fresh")}, {Text: str("Basil")}}
	lines := []computervision.OcrLine{{BoundingBox: str("10,20,30,5"), Words: &words}}
	regions := []computervision.OcrRegion{{Lines: &lines}}
	fake := &fakeOCR{result: computervision.OcrResult{Regions: &regions}}
	a := &Analyzer{client: fake}

	path := writePNG(t)
	res, err := a.Analyze(context.Background(), port.AnalyzeInput{Path: path, ContentType: "image/png"})

	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	require.Len(t, res.Pages[0].Lines, 1)
	line := res.Pages[0].Lines[0]
	assert.Equal(t, "Fresh Basil", line.Content)
	assert.Equal(t, []port.Point{{X: 10, Y: 20}, {X: 40, Y: 20}, {X: 40, Y: 25}, {X: 10, Y: 25}}, line.Polygon)

	raw, _ := os.ReadFile(path)
	assert.Equal(t, raw, fake.got)
}

func TestAnalyzer_Analyze_EnhancesImage(t *testing.T) {
	fake := &fakeOCR{}
	a := &Analyzer{client: fake, enhance: true}

	_, err := a.Analyze(context.Background(), port.AnalyzeInput{Path: writePNG(t), ContentType: "image/png"})
	require.NoError(t, err)

	require.NotEmpty(t, fake.got)
	_, format, err := image.Decode(bytes.NewReader(fake.got))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestAnalyzer_Analyze_RejectsPDF(t *testing.T) {
	a := &Analyzer{client: &fakeOCR{}}

	_, err := a.Analyze(context.Background(), port.AnalyzeInput{Path: "x.pdf", ContentType: "application/pdf"})

	assert.ErrorContains(t, err, "unsupported content type")
}

func TestBoxPolygon_Malformed(t *testing.T) {
	assert.Nil(t, boxPolygon(nil))
	assert.Nil(t, boxPolygon(str("1,2")))
	assert.Nil(t, boxPolygon(str("a,b,c,d")))
}
