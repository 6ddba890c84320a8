package entities

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record is a document stored in its own collection and addressed by a
// store-generated identifier
type Record interface {
	RecordID() string
	SetRecordID(id string)
}

// Profile holds the personal and login fields shared by parents, students and teachers
type Profile struct {
	Email         string    `json:"email" bson:"email"`
	Password      string    `json:"password" bson:"password"`
	FirstName     string    `json:"fname" bson:"fname"`
	LastName      string    `json:"lname" bson:"lname"`
	DateOfBirth   time.Time `json:"dob" bson:"dob"`
	Phone         string    `json:"phone" bson:"phone"`
	Mobile        string    `json:"mobile" bson:"mobile"`
	Status        bool      `json:"status" bson:"status"`
	LastLoginDate time.Time `json:"last_login_date" bson:"last_login_date"`
	LastLoginIP   string    `json:"last_login_ip" bson:"last_login_ip"`
}

// Parent represents a parent account
type Parent struct {
	ID      string `json:"_id,omitempty" bson:"_id,omitempty"`
	Profile `bson:",inline"`
}

// RecordID returns the store-assigned identifier
func (p *Parent) RecordID() string { return p.ID }

// SetRecordID sets the identifier
func (p *Parent) SetRecordID(id string) { p.ID = id }

// Student represents a student account. Parent is an embedded copy, not a
// reference, so later changes to the parent document are not reflected here.
type Student struct {
	ID         string    `json:"_id,omitempty" bson:"_id,omitempty"`
	Profile    `bson:",inline"`
	Parent     Parent    `json:"parent" bson:"parent"`
	DateOfJoin time.Time `json:"date_of_join" bson:"date_of_join"`
}

// RecordID returns the store-assigned identifier
func (s *Student) RecordID() string { return s.ID }

// SetRecordID sets the identifier
func (s *Student) SetRecordID(id string) { s.ID = id }

// MarshalBSON writes the embedded parent's identifier as an ObjectId, the
// type it has in the parent collection. Decoding turns it back into hex.
func (s Student) MarshalBSON() ([]byte, error) {
	type student Student
	data, err := bson.Marshal(student(s))
	if err != nil {
		return nil, err
	}

	parentID, err := primitive.ObjectIDFromHex(s.Parent.ID)
	if err != nil {
		// Empty or not an ObjectId: keep it as written
		return data, nil
	}

	var doc bson.D
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	for i := range doc {
		if doc[i].Key != "parent" {
			continue
		}
		parent, ok := doc[i].Value.(bson.D)
		if !ok {
			break
		}
		for j := range parent {
			if parent[j].Key == "_id" {
				parent[j].Value = parentID
			}
		}
	}
	return bson.Marshal(doc)
}

// Teacher represents a teacher account
type Teacher struct {
	ID      string `json:"_id,omitempty" bson:"_id,omitempty"`
	Profile `bson:",inline"`
}

// RecordID returns the store-assigned identifier
func (t *Teacher) RecordID() string { return t.ID }

// SetRecordID sets the identifier
func (t *Teacher) SetRecordID(id string) { t.ID = id }
