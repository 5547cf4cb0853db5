package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coach is a trainer listed in the public catalog.
type Coach struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	Email             string             `bson:"email" json:"email"`
	Bio               string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Specialty         string             `bson:"specialty,omitempty" json:"specialty,omitempty"`
	Certifications    []string           `bson:"certifications,omitempty" json:"certifications,omitempty"`
	YearsOfExperience int                `bson:"yearsOfExperience" json:"yearsOfExperience"`
	Availability      string             `bson:"availability,omitempty" json:"availability,omitempty"` // free text, e.g. "Mon-Fri 10:00-19:00"
	Rating            float64            `bson:"rating" json:"rating"`
	IsActive          bool               `bson:"isActive" json:"isActive"`
	ClientCount       int                `bson:"clientCount" json:"clientCount"`
	PictureURL        string             `bson:"pictureUrl,omitempty" json:"pictureUrl,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Package is a purchasable membership tier.
type Package struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64            `bson:"price" json:"price"`
	PictureURL  string             `bson:"pictureUrl,omitempty" json:"pictureUrl,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
