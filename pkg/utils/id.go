package utils

import "github.com/google/uuid"

// NewID 用户等实体的主键（UUID v4）
func NewID() string { return uuid.NewString() }
