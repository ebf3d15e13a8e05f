package bulkload

import (
	"context"
	"fmt"
	"strconv"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// FirestoreCommitter writes batches into a named Firestore collection, one
// document per source row keyed by row index.
type FirestoreCommitter struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreCommitter(ctx context.Context, projectID, credentialsFile, collection string) (*FirestoreCommitter, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to firestore: %w", err)
	}
	return &FirestoreCommitter{
		client:     client,
		collection: collection,
	}, nil
}

func (f *FirestoreCommitter) Commit(ctx context.Context, rows []Row) error {
	batch := f.client.Batch()
	for _, r := range rows {
		ref := f.client.Collection(f.collection).Doc(strconv.Itoa(r.Index))
		batch.Set(ref, r.Doc)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("committing %d documents: %w", len(rows), err)
	}
	return nil
}

func (f *FirestoreCommitter) Close() error {
	return f.client.Close()
}
