// Package ocr turns raw OCR service output into a normalized record and drives
// the asynchronous submit/poll protocol against the OCR service.
package ocr

import (
	"context"
	"errors"
)

type BlockType string

const (
	BlockLine        BlockType = "LINE"
	BlockWord        BlockType = "WORD"
	BlockKeyValueSet BlockType = "KEY_VALUE_SET"
	BlockTable       BlockType = "TABLE"
	BlockCell        BlockType = "CELL"
)

type RelationshipType string

const (
	RelValue RelationshipType = "VALUE"
	RelChild RelationshipType = "CHILD"
)

const (
	EntityKey   = "KEY"
	EntityValue = "VALUE"
)

// Block is one OCR primitive as returned by the service.
type Block struct {
	ID            string         `json:"Id"`
	Type          BlockType      `json:"BlockType"`
	EntityTypes   []string       `json:"EntityTypes,omitempty"`
	Text          string         `json:"Text,omitempty"`
	Confidence    float64        `json:"Confidence"`
	Relationships []Relationship `json:"Relationships,omitempty"`
}

type Relationship struct {
	Type RelationshipType `json:"Type"`
	IDs  []string         `json:"Ids"`
}

func (b Block) isKey() bool {
	return len(b.EntityTypes) > 0 && b.EntityTypes[0] == EntityKey
}

type JobStatus string

const (
	JobInProgress JobStatus = "IN_PROGRESS"
	JobSucceeded  JobStatus = "SUCCEEDED"
	JobFailed     JobStatus = "FAILED"
)

type Feature string

const (
	FeatureTables Feature = "TABLES"
	FeatureForms  Feature = "FORMS"
)

// Location points the OCR service at the stored document.
type Location struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

type AnalysisRequest struct {
	Location    Location
	ClientToken string
	Features    []Feature
}

type AnalysisResult struct {
	JobID         string
	Status        JobStatus
	StatusMessage string
	Blocks        []Block
}

// ErrInvalidJob is returned by Service.GetAnalysis for an unknown job handle.
var ErrInvalidJob = errors.New("ocr: invalid job id")

// Service is the asynchronous OCR job API.
type Service interface {
	StartAnalysis(ctx context.Context, req AnalysisRequest) (jobID string, err error)
	GetAnalysis(ctx context.Context, jobID string) (AnalysisResult, error)
}
