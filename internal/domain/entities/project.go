package entities

import "github.com/google/uuid"

// Project is owned by an upstream admin tool; the core only reads it.
type Project struct {
	ID                    uuid.UUID `json:"id"`
	RepoURL               string    `json:"repoUrl"`
	TCDirectID            int64     `json:"tcDirectId"`
	Copilot               string    `json:"copilot"`
	Owner                 string    `json:"owner"`
	CreateCopilotPayments bool      `json:"createCopilotPayments"`
	Tags                  []string  `json:"tags"`
	Title                 string    `json:"title"`
}
