package repository

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"floodmap-api/internal/models"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/genproto/googleapis/type/latlng"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewFirestoreClient initializes a Firestore client for the given project.
// encodedCreds is a base64 service-account JSON; when empty, application default credentials are used.
func NewFirestoreClient(ctx context.Context, projectID, encodedCreds string) (*firestore.Client, error) {
	var opts []option.ClientOption
	if encodedCreds != "" {
		creds, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to decode firestore credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to initialize firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to create firestore client: %w", err)
	}
	return client, nil
}

// FirestoreStore keeps reports as documents of one shared collection.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	logger     zerolog.Logger
}

func NewFirestoreStore(client *firestore.Client, collection string, logger zerolog.Logger) *FirestoreStore {
	if collection == "" {
		collection = RecordType
	}
	return &FirestoreStore{client: client, collection: collection, logger: logger}
}

// FetchAll reads every document in the collection. No ordering clause is used
// since Firestore drops documents lacking the ordered field.
func (s *FirestoreStore) FetchAll(ctx context.Context) ([]models.FloodReport, error) {
	iter := s.client.Collection(s.collection).Documents(ctx)
	defer iter.Stop()

	var records []record
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, &models.BackendError{Op: "fetch", Err: fmt.Errorf("repository: failed to iterate documents: %w", err)}
		}
		records = append(records, recordFromDocument(doc.Ref.ID, doc.Data()))
	}

	return collectReports(records, s.logger), nil
}

func (s *FirestoreStore) Create(ctx context.Context, report models.FloodReport) (models.FloodReport, error) {
	ref, _, err := s.client.Collection(s.collection).Add(ctx, map[string]interface{}{
		locationField: &latlng.LatLng{
			Latitude:  report.Coordinate.Latitude,
			Longitude: report.Coordinate.Longitude,
		},
		titleField:     report.Title,
		createdAtField: report.CreatedAt,
	})
	if err != nil {
		return models.FloodReport{}, &models.BackendError{Op: "create", Err: fmt.Errorf("repository: failed to add document: %w", err)}
	}

	report.ID = ref.ID
	return report, nil
}

// Delete requires the document to exist so stale ids surface as ErrReportNotFound.
func (s *FirestoreStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.Collection(s.collection).Doc(id).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound {
		return &models.BackendError{Op: "delete", Err: fmt.Errorf("repository: %s: %w", id, models.ErrReportNotFound)}
	}
	if err != nil {
		return &models.BackendError{Op: "delete", Err: fmt.Errorf("repository: failed to delete document: %w", err)}
	}
	return nil
}

func recordFromDocument(id string, data map[string]interface{}) record {
	rec := record{ID: id}

	if loc, ok := data[locationField].(*latlng.LatLng); ok && loc != nil {
		rec.Latitude = floatPtr(loc.GetLatitude())
		rec.Longitude = floatPtr(loc.GetLongitude())
	}
	if title, ok := data[titleField].(string); ok {
		rec.Title = title
	}
	if createdAt, ok := data[createdAtField].(time.Time); ok {
		rec.CreatedAt = createdAt
	}

	return rec
}
