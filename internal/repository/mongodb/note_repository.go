package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"notes-api/internal/domain"
	"notes-api/internal/repository"
)

type noteDocument struct {
	ID        string    `bson:"_id"`
	Content   string    `bson:"content"`
	Important bool      `bson:"important"`
	OwnerID   string    `bson:"user"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d noteDocument) toDomain() domain.Note {
	return domain.Note{
		ID:        d.ID,
		Content:   d.Content,
		Important: d.Important,
		OwnerID:   d.OwnerID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type NoteRepository struct {
	notes *mongo.Collection
	users *mongo.Collection
}

func NewNoteRepository(db *mongo.Database) repository.NoteRepository {
	return &NoteRepository{
		notes: db.Collection(notesCollection),
		users: db.Collection(usersCollection),
	}
}

func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) error {
	// no foreign keys in a document store; check the owner explicitly
	if err := r.users.FindOne(ctx, bson.M{"_id": note.OwnerID}).Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("insert note for owner %s: %w", note.OwnerID, repository.ErrNotFound)
		}
		return fmt.Errorf("lookup note owner: %w", err)
	}

	now := time.Now().UTC()
	doc := noteDocument{
		ID:        domain.NewID(),
		Content:   note.Content,
		Important: note.Important,
		OwnerID:   note.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.notes.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert note: %w", err)
	}

	note.ID = doc.ID
	note.CreatedAt = now
	note.UpdatedAt = now
	return nil
}

func (r *NoteRepository) Get(ctx context.Context, id string) (*domain.Note, error) {
	var doc noteDocument
	if err := r.notes.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find note: %w", err)
	}

	notes := []domain.Note{doc.toDomain()}
	if err := r.populateOwners(ctx, notes); err != nil {
		return nil, err
	}
	return &notes[0], nil
}

func (r *NoteRepository) List(ctx context.Context, filter domain.NoteFilter) ([]domain.Note, error) {
	query := bson.M{}
	if filter.Important != nil {
		query["important"] = *filter.Important
	}
	if filter.OwnerID != "" {
		query["user"] = filter.OwnerID
	}

	cur, err := r.notes.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	var docs []noteDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}

	notes := make([]domain.Note, 0, len(docs))
	for _, d := range docs {
		notes = append(notes, d.toDomain())
	}
	if err := r.populateOwners(ctx, notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *NoteRepository) Update(ctx context.Context, note *domain.Note) error {
	note.UpdatedAt = time.Now().UTC()

	res, err := r.notes.UpdateOne(ctx, bson.M{"_id": note.ID}, bson.M{
		"$set": bson.M{
			"content":    note.Content,
			"important":  note.Important,
			"updated_at": note.UpdatedAt,
		},
	})
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.notes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// populateOwners resolves Note.Owner with one query over the distinct owner ids.
func (r *NoteRepository) populateOwners(ctx context.Context, notes []domain.Note) error {
	if len(notes) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(notes))
	ids := make([]string, 0, len(notes))
	for _, n := range notes {
		if _, ok := seen[n.OwnerID]; ok {
			continue
		}
		seen[n.OwnerID] = struct{}{}
		ids = append(ids, n.OwnerID)
	}

	cur, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"username": 1, "name": 1}))
	if err != nil {
		return fmt.Errorf("lookup note owners: %w", err)
	}
	var owners []userDocument
	if err := cur.All(ctx, &owners); err != nil {
		return fmt.Errorf("decode note owners: %w", err)
	}

	byID := make(map[string]*domain.UserRef, len(owners))
	for _, o := range owners {
		byID[o.ID] = &domain.UserRef{ID: o.ID, Username: o.Username, Name: o.Name}
	}
	for i := range notes {
		notes[i].Owner = byID[notes[i].OwnerID]
	}
	return nil
}
