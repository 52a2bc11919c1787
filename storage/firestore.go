package storage

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jobpilot/backend/config"
)

// kvDocument is the shape of every stored document; the namespace is the
// collection and the key the document ID.
type kvDocument struct {
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// FirestoreKV stores values in Firestore
type FirestoreKV struct {
	client *firestore.Client
}

// NewFirestoreKV creates a new Firestore-backed store
func NewFirestoreKV(ctx context.Context, cfg *config.Config) (*FirestoreKV, error) {
	client, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &FirestoreKV{client: client}, nil
}

// Close closes the Firestore client
func (f *FirestoreKV) Close() error {
	return f.client.Close()
}

func (f *FirestoreKV) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	doc, err := f.client.Collection(namespace).Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, notFound(namespace, key)
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", namespace, key, err)
	}

	var stored kvDocument
	if err := doc.DataTo(&stored); err != nil {
		return nil, fmt.Errorf("failed to parse %s/%s: %w", namespace, key, err)
	}
	return []byte(stored.Value), nil
}

func (f *FirestoreKV) Put(ctx context.Context, namespace, key string, value []byte) error {
	_, err := f.client.Collection(namespace).Doc(key).Set(ctx, kvDocument{Value: string(value), UpdatedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (f *FirestoreKV) Create(ctx context.Context, namespace, key string, value []byte) error {
	_, err := f.client.Collection(namespace).Doc(key).Create(ctx, kvDocument{Value: string(value), UpdatedAt: time.Now()})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (f *FirestoreKV) Delete(ctx context.Context, namespace, key string) error {
	if _, err := f.client.Collection(namespace).Doc(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", namespace, key, err)
	}
	return nil
}
