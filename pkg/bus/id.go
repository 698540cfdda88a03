package bus

import "github.com/google/uuid"

func newSubID() string { return uuid.NewString() }
