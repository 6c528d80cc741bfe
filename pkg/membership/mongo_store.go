package membership

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection is the collection user documents live in.
const DefaultCollection = "users"

// MongoStore implements Store on top of a mongo collection holding user
// documents. Membership fields are a subset of the full user document, so
// Save uses partial updates rather than document replacement.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a Store backed by the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(DefaultCollection)}
}

func (s *MongoStore) Get(ctx context.Context, userID string) (*Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrFailedToQueryRecords, err)
	}
	return &rec, nil
}

func (s *MongoStore) FindPremiumByEmail(ctx context.Context, email string) (*Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{
		"email":          email,
		"membershipType": TypePremium,
	}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrFailedToQueryRecords, err)
	}
	return &rec, nil
}

func (s *MongoStore) FindByCustomerID(ctx context.Context, customerID string) (*Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"subscription.customerId": customerID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrFailedToQueryRecords, err)
	}
	return &rec, nil
}

func (s *MongoStore) FindPremiumBySubscriptionID(ctx context.Context, subscriptionID string) (*Record, error) {
	recs, err := s.ListPremium(ctx)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		if recs[i].EffectiveSubscriptionID() == subscriptionID {
			return &recs[i], nil
		}
	}
	return nil, ErrRecordNotFound
}

func (s *MongoStore) ListPremium(ctx context.Context) ([]Record, error) {
	cur, err := s.coll.Find(ctx, bson.M{"membershipType": TypePremium})
	if err != nil {
		return nil, errors.Join(ErrFailedToQueryRecords, err)
	}
	var recs []Record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, errors.Join(ErrFailedToQueryRecords, err)
	}
	return recs, nil
}

func (s *MongoStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil || rec.UserID == "" {
		return ErrMissingUserID
	}

	set := bson.M{
		"membershipType": rec.MembershipType,
		"updatedAt":      rec.UpdatedAt,
	}
	unset := bson.M{}

	if rec.Email != "" {
		set["email"] = rec.Email
	}
	if rec.SubscriptionID != "" {
		set["subscriptionId"] = rec.SubscriptionID
	} else {
		unset["subscriptionId"] = ""
	}
	if rec.Subscription != nil {
		set["subscription"] = rec.Subscription
	} else {
		unset["subscription"] = ""
	}
	if rec.CancelledAt != nil {
		set["cancelledAt"] = rec.CancelledAt
	} else {
		unset["cancelledAt"] = ""
	}
	if rec.DowngradeReason != "" {
		set["downgradeReason"] = rec.DowngradeReason
	} else {
		unset["downgradeReason"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": rec.UserID}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return errors.Join(ErrFailedToSaveRecord, err)
	}
	return nil
}
