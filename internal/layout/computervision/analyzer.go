// Package computervision implements port.LayoutAnalyzer with the Azure
// Computer Vision OCR API. It handles single images only and detects no
// tables, so it suits photographed receipts better than multi-page PDFs.
package computervision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
	"github.com/disintegration/imaging"

	"invoiceflow/internal/config"
	"invoiceflow/internal/port"
)

type ocrClient interface {
	RecognizePrintedTextInStream(ctx context.Context, detectOrientation bool, image io.ReadCloser, language computervision.OcrLanguages) (computervision.OcrResult, error)
}

// Analyzer runs printed-text OCR on an image, optionally enhancing it first.
type Analyzer struct {
	client  ocrClient
	enhance bool
}

// NewAnalyzer creates a Computer Vision analyzer from the layout config.
func NewAnalyzer(cfg *config.LayoutConfig) (*Analyzer, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("computervision: endpoint is required")
	}
	client := computervision.New(cfg.Endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(cfg.APIKey)
	return &Analyzer{client: client, enhance: cfg.EnhanceImages}, nil
}

// Analyze implements port.LayoutAnalyzer. The whole image is page 1.
func (a *Analyzer) Analyze(ctx context.Context, input port.AnalyzeInput) (*port.LayoutResult, error) {
	if !strings.HasPrefix(input.ContentType, "image/") {
		return nil, fmt.Errorf("computervision: unsupported content type %s", input.ContentType)
	}

	var data []byte
	var err error
	if a.enhance {
		data, err = Enhance(input.Path)
	} else {
		data, err = os.ReadFile(input.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("computervision: preparing image: %w", err)
	}

	result, err := a.client.RecognizePrintedTextInStream(ctx, true, io.NopCloser(bytes.NewReader(data)),
		computervision.OcrLanguages(computervision.En))
	if err != nil {
		return nil, fmt.Errorf("computervision: recognizing text: %w", err)
	}
	return toLayout(result), nil
}

// Enhance converts the image to a sharpened, higher-contrast grayscale PNG.
func Enhance(path string) ([]byte, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}

func toLayout(result computervision.OcrResult) *port.LayoutResult {
	page := port.LayoutPage{Number: 1}
	if result.Regions != nil {
		for _, region := range *result.Regions {
			if region.Lines == nil {
				continue
			}
			for _, line := range *region.Lines {
				page.Lines = append(page.Lines, port.LayoutLine{
					Content: lineText(line),
					Polygon: boxPolygon(line.BoundingBox),
				})
			}
		}
	}
	return &port.LayoutResult{Pages: []port.LayoutPage{page}}
}

func lineText(line computervision.OcrLine) string {
	if line.Words == nil {
		return ""
	}
	words := make([]string, 0, len(*line.Words))
	for _, w := range *line.Words {
		if w.Text != nil {
			words = append(words, *w.Text)
		}
	}
	return strings.Join(words, " ")
}

// boxPolygon turns an "x,y,w,h" bounding box into four corner points.
func boxPolygon(box *string) []port.Point {
	if box == nil {
		return nil
	}
	parts := strings.Split(*box, ",")
	if len(parts) < 4 {
		return nil
	}
	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return nil
		}
		vals[i] = v
	}
	x, y, w, h := vals[0], vals[1], vals[2], vals[3]
	return []port.Point{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}
}
