// Package firestore stores each user's invoices as one Firestore document
// whose id is the user id.
package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/port"
	"invoiceflow/internal/retry"
)

// document is the stored shape. Invoices keep the extraction template keys.
type document struct {
	ID        string                   `firestore:"id"`
	UserID    string                   `firestore:"userId"`
	Invoices  []map[string]interface{} `firestore:"invoices"`
	CreatedAt time.Time                `firestore:"createdAt"`
	UpdatedAt time.Time                `firestore:"updatedAt"`
}

type userInvoicesRepo struct {
	client     *firestore.Client
	collection string
	policy     retry.Policy
}

// NewClient creates a Firestore client for projectID.
func NewClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}

// NewUserInvoicesRepo creates a Firestore-backed InvoiceStore. Appends that
// hit rate limiting or contention are retried maxRetries times after the
// first try with baseDelay * 2^n backoff.
func NewUserInvoicesRepo(client *firestore.Client, collection string, maxRetries int, baseDelay time.Duration) port.InvoiceStore {
	return &userInvoicesRepo{
		client:     client,
		collection: collection,
		policy:     retry.Policy{Attempts: maxRetries + 1, BaseDelay: baseDelay},
	}
}

func isRetryable(err error) bool {
	switch status.Code(err) {
	case codes.ResourceExhausted, codes.Unavailable, codes.Aborted:
		return true
	}
	return false
}

func (r *userInvoicesRepo) AppendInvoices(ctx context.Context, userID string, invoices []domain.Invoice) (*domain.UserInvoices, error) {
	records, err := toRecords(invoices)
	if err != nil {
		return nil, fmt.Errorf("userInvoicesRepo.AppendInvoices: %w", err)
	}
	ref := r.client.Collection(r.collection).Doc(userID)

	var stored document
	attempts, err := r.policy.Do(ctx, func(ctx context.Context) error {
		return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			now := time.Now().UTC()
			doc := document{ID: userID, UserID: userID, CreatedAt: now}
			snap, err := tx.Get(ref)
			switch {
			case status.Code(err) == codes.NotFound:
			case err != nil:
				return err
			default:
				if err := snap.DataTo(&doc); err != nil {
					return err
				}
			}
			doc.Invoices = append(doc.Invoices, records...)
			doc.UpdatedAt = now
			if err := tx.Set(ref, &doc); err != nil {
				return err
			}
			stored = doc
			return nil
		})
	}, isRetryable)
	if err != nil {
		if isRetryable(err) {
			return nil, fmt.Errorf("userInvoicesRepo.AppendInvoices: %w: %v", domain.ErrStoreUnavailable, err)
		}
		return nil, fmt.Errorf("userInvoicesRepo.AppendInvoices: %w", err)
	}
	if attempts > 1 {
		log.Printf("userInvoicesRepo.AppendInvoices: user=%s stored after %d attempts", userID, attempts)
	}
	return fromDocument(&stored)
}

func (r *userInvoicesRepo) GetUserInvoices(ctx context.Context, userID string) (*domain.UserInvoices, error) {
	snap, err := r.client.Collection(r.collection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("userInvoicesRepo.GetUserInvoices: %w", err)
	}
	var doc document
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("userInvoicesRepo.GetUserInvoices: %w", err)
	}
	return fromDocument(&doc)
}

// Ping reads a document that need not exist; NotFound still proves the
// backend answered.
func (r *userInvoicesRepo) Ping(ctx context.Context) error {
	_, err := r.client.Collection(r.collection).Doc("_ping").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return err
	}
	return nil
}

// toRecords converts invoices to generic maps keyed like their JSON form.
func toRecords(invoices []domain.Invoice) ([]map[string]interface{}, error) {
	b, err := json.Marshal(invoices)
	if err != nil {
		return nil, fmt.Errorf("encoding invoices: %w", err)
	}
	var records []map[string]interface{}
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("encoding invoices: %w", err)
	}
	return records, nil
}

func fromDocument(doc *document) (*domain.UserInvoices, error) {
	out := &domain.UserInvoices{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Invoices:  domain.InvoiceList{},
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	if len(doc.Invoices) == 0 {
		return out, nil
	}
	b, err := json.Marshal(doc.Invoices)
	if err != nil {
		return nil, fmt.Errorf("decoding invoices: %w", err)
	}
	if err := json.Unmarshal(b, &out.Invoices); err != nil {
		return nil, fmt.Errorf("decoding invoices: %w", err)
	}
	return out, nil
}
