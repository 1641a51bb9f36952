package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/expenseflow/reimbursement/internal/core/domain"
	"github.com/expenseflow/reimbursement/internal/core/ports"
)

const collectionReimbursements = "reimbursements"

type ReimbursementRepository struct {
	col *mongo.Collection
}

func NewReimbursementRepository(db *mongo.Database) *ReimbursementRepository {
	return &ReimbursementRepository{col: db.Collection(collectionReimbursements)}
}

type mongoReimbursement struct {
	ID          primitive.ObjectID         `bson:"_id,omitempty"`
	Title       string                     `bson:"title"`
	Description string                     `bson:"description,omitempty"`
	Amount      float64                    `bson:"amount"`
	Status      domain.ReimbursementStatus `bson:"status"`
	Requester   domain.UserRef             `bson:"requester"`
	Approvals   []domain.Approval          `bson:"approvals"`
	CreatedAt   time.Time                  `bson:"created_at"`
	UpdatedAt   time.Time                  `bson:"updated_at"`
}

func (m mongoReimbursement) toDomain() *domain.Reimbursement {
	approvals := m.Approvals
	if approvals == nil {
		approvals = []domain.Approval{}
	}
	for i := range approvals {
		approvals[i].ApprovedAt = approvals[i].ApprovedAt.UTC()
	}
	return &domain.Reimbursement{
		ID:          m.ID.Hex(),
		Title:       m.Title,
		Description: m.Description,
		Amount:      m.Amount,
		Status:      m.Status,
		Requester:   m.Requester,
		Approvals:   approvals,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

// Create inserts a new reimbursement document and sets r.ID.
func (r *ReimbursementRepository) Create(ctx context.Context, rb *domain.Reimbursement) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoReimbursement{
		ID:          primitive.NewObjectID(),
		Title:       rb.Title,
		Description: rb.Description,
		Amount:      rb.Amount,
		Status:      rb.Status,
		Requester:   rb.Requester,
		Approvals:   rb.Approvals,
		CreatedAt:   rb.CreatedAt,
		UpdatedAt:   rb.UpdatedAt,
	}
	if doc.Approvals == nil {
		doc.Approvals = []domain.Approval{}
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert reimbursement: %w", err)
	}
	rb.ID = doc.ID.Hex()
	return nil
}

func (r *ReimbursementRepository) FindByID(ctx context.Context, id string) (*domain.Reimbursement, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrReimbursementNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoReimbursement
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReimbursementNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ReimbursementRepository) List(ctx context.Context, f ports.ListReimbursementsFilter) ([]*domain.Reimbursement, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.RequesterID != "" {
		filter["requester.id"] = f.RequesterID
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list reimbursements: %w", err)
	}
	var docs []mongoReimbursement
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reimbursements: %w", err)
	}

	out := make([]*domain.Reimbursement, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Decide atomically sets the new status and appends the approval record. The
// pending check is part of the filter, so a concurrent decision loses.
func (r *ReimbursementRepository) Decide(ctx context.Context, id string, a domain.Approval) (*domain.Reimbursement, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrReimbursementNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": oid, "status": string(domain.StatusPending)}
	update := bson.M{
		"$set":  bson.M{"status": string(a.Status), "updated_at": a.ApprovedAt},
		"$push": bson.M{"approvals": a},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoReimbursement
	err = r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("decide reimbursement: %w", err)
	}

	// Distinguish a missing request from one that is no longer pending.
	if _, findErr := r.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, domain.ErrConcurrentDecision
}

// EnsureIndexes creates necessary indexes on the reimbursements collection.
func (r *ReimbursementRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "requester.id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
