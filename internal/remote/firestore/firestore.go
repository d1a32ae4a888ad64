// Package firestore adapts the remote store ports to Google Cloud
// Firestore. Records live in top-level collections (expenses, categories,
// budgets) as documents keyed by record ID and tagged with the owning
// userId.
package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tally/internal/remote"
)

// Client wraps a Firestore connection shared by the typed collections.
type Client struct {
	fs *firestore.Client
}

// NewClient initializes a Firebase app and opens its Firestore database.
// An empty credentials file falls back to application default credentials.
func NewClient(ctx context.Context, projectID, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open firestore: %w", err)
	}

	return &Client{fs: fs}, nil
}

func (c *Client) Close() error {
	return c.fs.Close()
}

// Collection is the Firestore-backed store for one entity kind.
type Collection[T remote.Record] struct {
	fs   *firestore.Client
	name string
}

func NewCollection[T remote.Record](c *Client) *Collection[T] {
	return &Collection[T]{fs: c.fs, name: remote.CollectionName[T]()}
}

// Subscribe attaches a snapshot listener on the owner's documents. Each
// remote change delivers the full owner-scoped record set; the listener
// goroutine exits when the context is canceled or stop is called.
func (c *Collection[T]) Subscribe(ctx context.Context, ownerID string, onSnapshot func([]T)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	iter := c.fs.Collection(c.name).Where("userId", "==", ownerID).Snapshots(ctx)

	go func() {
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					slog.Error("Remote snapshot stream failed",
						"collection", c.name, "error", err)
				}
				return
			}
			records, err := decodeSnapshot[T](snap)
			if err != nil {
				slog.Warn("Skipping undecodable remote snapshot",
					"collection", c.name, "error", err)
				continue
			}
			onSnapshot(records)
		}
	}()

	return cancel, nil
}

// Create writes a new document, reporting ErrAlreadyExists on collision so
// the caller can fall back to Update.
func (c *Collection[T]) Create(ctx context.Context, ownerID string, rec T) error {
	id := remote.RecordID(rec)
	data, err := encodeRecord(rec, ownerID)
	if err != nil {
		return err
	}
	if _, err := c.fs.Collection(c.name).Doc(id).Create(ctx, data); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("create %s/%s: %w", c.name, id, remote.ErrAlreadyExists)
		}
		return fmt.Errorf("create %s/%s: %w", c.name, id, err)
	}
	return nil
}

// Update overwrites the document, inserting it when absent.
func (c *Collection[T]) Update(ctx context.Context, ownerID string, rec T) error {
	id := remote.RecordID(rec)
	data, err := encodeRecord(rec, ownerID)
	if err != nil {
		return err
	}
	if _, err := c.fs.Collection(c.name).Doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("update %s/%s: %w", c.name, id, err)
	}
	return nil
}

// Delete removes the document. Firestore treats deleting an absent
// document as success, which matches the best-effort delete contract.
func (c *Collection[T]) Delete(ctx context.Context, _ string, id string) error {
	if _, err := c.fs.Collection(c.name).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.name, id, err)
	}
	return nil
}

// encodeRecord converts a record to a Firestore document via its JSON
// form, so the wire field names and value shapes match the persisted
// layout exactly. The owner tag is stamped on top.
func encodeRecord[T remote.Record](rec T, ownerID string) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	data["userId"] = ownerID
	return data, nil
}

func decodeSnapshot[T remote.Record](snap *firestore.QuerySnapshot) ([]T, error) {
	records := make([]T, 0)
	docs := snap.Documents
	for {
		doc, err := docs.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		rec, err := decodeDocument[T](doc.Data())
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeDocument[T remote.Record](data map[string]any) (T, error) {
	var rec T
	raw, err := json.Marshal(data)
	if err != nil {
		return rec, fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("decode document: %w", err)
	}
	return rec, nil
}
