package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Level{},
	&Blob{},
}

////////////////////////
// CATALOG MODELS
////////////////////////

// Level is one catalogued decode of a level directory
type Level struct {
	gorm.Model
	Path      string    `json:"path" gorm:"size:1023;index:idx_level_path"`
	Variant   string    `json:"variant" gorm:"size:31"`
	Valid     bool      `json:"valid"`
	DecodedAt time.Time `json:"decodedAt" gorm:"index:idx_level_decoded_at"`
	Digest    string    `json:"digest" gorm:"size:16;index:idx_level_digest"`

	Models    datatypes.JSON `json:"models"`    // category name to model count
	Instances datatypes.JSON `json:"instances"` // instance kind to count

	TexturesTotal  int `json:"texturesTotal"`
	TexturesFilled int `json:"texturesFilled"`
	VramOrphans    int `json:"vramOrphans"`
	PayloadBytes   int `json:"payloadBytes"`
	Unresolved     int `json:"unresolved"`

	Blobs []Blob `json:"blobs" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*Level) TableName() string {
	return "levels"
}

// Blob is the digest of one verbatim region of a catalogued level
type Blob struct {
	ID      uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	LevelID uint   `json:"levelId" gorm:"index:idx_blob_level_id"`
	Region  string `json:"region" gorm:"size:63"`
	Offset  int64  `json:"offset"`
	Length  int    `json:"length"`
	XXHash  string `json:"xxhash" gorm:"size:16"`
}

func (*Blob) TableName() string {
	return "level_blobs"
}
