package convert

import (
	"fmt"
	"time"

	"gitea.jw6.us/james/calconv/internal/domain"
)

const (
	convMinDateTime = "19000101T000000Z"
	convMaxDateTime = "21001231T235959Z"

	maxAttendeesPerInstance = 100
	maxPollCandidates       = 100
)

var (
	// Parsed date limits, validated at package initialization
	convMinTime time.Time
	convMaxTime time.Time
)

func init() {
	var err error
	convMinTime, err = domain.ParseDateTime(convMinDateTime)
	if err != nil {
		panic(fmt.Sprintf("invalid convMinDateTime constant: %v", err))
	}
	convMaxTime, err = domain.ParseDateTime(convMaxDateTime)
	if err != nil {
		panic(fmt.Sprintf("invalid convMaxDateTime constant: %v", err))
	}
}

func withinDateLimits(t time.Time) bool {
	return !t.Before(convMinTime) && !t.After(convMaxTime)
}
