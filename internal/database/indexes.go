package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureOrderIndexes creates the unique partial index on paymentReference.
// This index, not the read-before-insert in the store, is what guarantees
// at most one order per payment reference under concurrent requests.
func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	referenceIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "paymentReference", Value: 1}},
		Options: options.Index().
			SetName("paymentReference_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"paymentReference": bson.M{
					"$exists": true,
					"$gt":     "",
				},
			}),
	}

	log.Println("EnsureOrderIndexes: creating paymentReference_unique index")
	_, err := indexes.CreateOne(ctx, referenceIndex)
	if err != nil {
		log.Println("EnsureOrderIndexes: paymentReference index error:", err)
		return err
	}
	log.Println("EnsureOrderIndexes: paymentReference_unique index created")
	return nil
}

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	categoryIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "category", Value: 1},
			{Key: "isActive", Value: 1},
		},
		Options: options.Index().SetName("category_active"),
	}

	log.Println("EnsureProductIndexes: creating category_active index")
	_, err := indexes.CreateOne(ctx, categoryIndex)
	if err != nil {
		log.Println("EnsureProductIndexes: category index error:", err)
		return err
	}
	log.Println("EnsureProductIndexes: category_active index created")
	return nil
}

func EnsureAdminIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("admins").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureAdminIndexes: creating email_unique index")
	_, err := indexes.CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureAdminIndexes: email index error:", err)
		return err
	}
	log.Println("EnsureAdminIndexes: email_unique index created")
	return nil
}
