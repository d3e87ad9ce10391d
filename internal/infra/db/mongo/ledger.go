package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"stayrates/internal/app/policies"
	domainavailability "stayrates/internal/domain/availability"
	domainproperty "stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/daterange"
)

// BookingLedger reads the booking system's collection. The pricing service
// never writes here; the bookings belong to another service sharing the
// cluster.
type BookingLedger struct {
	col *mongo.Collection
}

func NewBookingLedger(db *mongo.Database) *BookingLedger {
	return &BookingLedger{col: db.Collection("bookings")}
}

func (l *BookingLedger) FindOverlapping(ctx context.Context, id domainproperty.ID, stay daterange.DateRange) ([]domainavailability.StayRecord, error) {
	filter := bson.M{
		"property_id": string(id),
		"status":      bson.M{"$in": []string{string(domainavailability.StatusConfirmed), string(domainavailability.StatusActive)}},
		"check_in":    bson.M{"$lt": stay.CheckOut.UnixMilli()},
		"check_out":   bson.M{"$gt": stay.CheckIn.UnixMilli()},
	}
	cursor, err := l.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []domainavailability.StayRecord
	for cursor.Next(ctx) {
		var doc stayDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, domainavailability.StayRecord{
			CheckIn:  timestampToTime(doc.CheckIn),
			CheckOut: timestampToTime(doc.CheckOut),
			Status:   domainavailability.StayStatus(doc.Status),
		})
	}
	return out, cursor.Err()
}

type stayDocument struct {
	CheckIn  int64  `bson:"check_in"`
	CheckOut int64  `bson:"check_out"`
	Status   string `bson:"status"`
}

var _ policies.BookingLedgerPort = (*BookingLedger)(nil)
