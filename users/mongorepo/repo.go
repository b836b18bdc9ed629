package mongorepo

import (
	"context"
	"time"

	"github.com/jrsteele09/go-collab-server/users"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const collectionName = "accounts"

var _ users.Repo = (*Repo)(nil)

type accountDocument struct {
	ID               bson.ObjectID `bson:"_id,omitempty"`
	Username         string        `bson:"username"`
	Email            string        `bson:"email"`
	PasswordHash     string        `bson:"passwordHash"`
	Role             string        `bson:"role"`
	RefreshTokenHash string        `bson:"refreshTokenHash,omitempty"`
	FirstName        string        `bson:"firstName,omitempty"`
	LastName         string        `bson:"lastName,omitempty"`
	Niche            string        `bson:"niche,omitempty"`
	CompanyName      string        `bson:"companyName,omitempty"`
	Website          string        `bson:"website,omitempty"`
	Industry         string        `bson:"industry,omitempty"`
	CreatedAt        time.Time     `bson:"createdAt"`
	UpdatedAt        time.Time     `bson:"updatedAt"`
}

func toDocument(a *users.Account) accountDocument {
	doc := accountDocument{
		Username:         a.Username,
		Email:            a.Email,
		PasswordHash:     a.PasswordHash,
		Role:             string(a.Role),
		RefreshTokenHash: a.RefreshTokenHash,
		FirstName:        a.FirstName,
		LastName:         a.LastName,
		Niche:            a.Niche,
		CompanyName:      a.CompanyName,
		Website:          a.Website,
		Industry:         a.Industry,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if oid, err := bson.ObjectIDFromHex(a.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

func (d accountDocument) toAccount() *users.Account {
	return &users.Account{
		ID:               d.ID.Hex(),
		Username:         d.Username,
		Email:            d.Email,
		PasswordHash:     d.PasswordHash,
		Role:             users.Role(d.Role),
		RefreshTokenHash: d.RefreshTokenHash,
		FirstName:        d.FirstName,
		LastName:         d.LastName,
		Niche:            d.Niche,
		CompanyName:      d.CompanyName,
		Website:          d.Website,
		Industry:         d.Industry,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// Repo stores accounts in a MongoDB collection
type Repo struct {
	client     *mongo.Client
	collection *mongo.Collection
	nowFunc    func() time.Time
}

// Connect dials MongoDB, verifies the connection and ensures the account indexes exist
func Connect(ctx context.Context, uri, database string) (*Repo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "[mongorepo.Connect] failed to create client")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "[mongorepo.Connect] failed to ping")
	}

	repo := &Repo{
		client:     client,
		collection: client.Database(database).Collection(collectionName),
		nowFunc:    time.Now,
	}
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return repo, nil
}

// EnsureIndexes creates the unique indexes that back the store's uniqueness rules.
// The partial index on role allows at most one superuser document.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_username"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_superuser").
				SetPartialFilterExpression(bson.D{{Key: "role", Value: string(users.RoleSuperUser)}}),
		},
		{
			Keys: bson.D{{Key: "refreshTokenHash", Value: 1}},
			Options: options.Index().SetName("refresh_token_hash").
				SetPartialFilterExpression(bson.D{{Key: "refreshTokenHash", Value: bson.D{{Key: "$exists", Value: true}}}}),
		},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		return errors.Wrap(err, "[mongorepo.EnsureIndexes] failed to create indexes")
	}
	return nil
}

func (r *Repo) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *Repo) Create(ctx context.Context, account *users.Account) error {
	now := r.nowFunc().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	doc := toDocument(account)
	doc.ID = bson.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return users.ErrDuplicate
		}
		return errors.Wrap(err, "[mongorepo.Create] insert failed")
	}
	account.ID = doc.ID.Hex()
	return nil
}

func (r *Repo) Update(ctx context.Context, account *users.Account) error {
	oid, err := bson.ObjectIDFromHex(account.ID)
	if err != nil {
		return users.ErrNotFound
	}
	account.UpdatedAt = r.nowFunc().UTC()

	doc := toDocument(account)
	doc.ID = oid
	res, err := r.collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: oid}}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return users.ErrDuplicate
		}
		return errors.Wrap(err, "[mongorepo.Update] replace failed")
	}
	if res.MatchedCount == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*users.Account, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, users.ErrNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *Repo) FindByLogin(ctx context.Context, identifier string, role users.Role) (*users.Account, error) {
	return r.findOne(ctx, bson.D{
		{Key: "role", Value: string(role)},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "username", Value: identifier}},
			bson.D{{Key: "email", Value: identifier}},
		}},
	})
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*users.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *Repo) FindByRefreshTokenHash(ctx context.Context, hash string) (*users.Account, error) {
	if hash == "" {
		return nil, users.ErrNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "refreshTokenHash", Value: hash}})
}

func (r *Repo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "username", Value: username}},
		bson.D{{Key: "email", Value: email}},
	}}}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrap(err, "[mongorepo.ExistsByUsernameOrEmail] count failed")
	}
	return count > 0, nil
}

func (r *Repo) FindByRole(ctx context.Context, role users.Role) ([]*users.Account, error) {
	return r.find(ctx, bson.D{{Key: "role", Value: string(role)}})
}

func (r *Repo) List(ctx context.Context) ([]*users.Account, error) {
	return r.find(ctx, bson.D{})
}

func (r *Repo) findOne(ctx context.Context, filter bson.D) (*users.Account, error) {
	var doc accountDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, users.ErrNotFound
		}
		return nil, errors.Wrap(err, "[mongorepo.findOne] query failed")
	}
	return doc.toAccount(), nil
}

func (r *Repo) find(ctx context.Context, filter bson.D) ([]*users.Account, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "[mongorepo.find] query failed")
	}

	var docs []accountDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "[mongorepo.find] decode failed")
	}

	accounts := make([]*users.Account, 0, len(docs))
	for _, d := range docs {
		accounts = append(accounts, d.toAccount())
	}
	return accounts, nil
}
