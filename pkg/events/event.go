// Package events publishes student index changes so that dashboards and
// report caches in other services can invalidate their copies.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"rollcall/pkg/common"
)

const (
	TypeEnrolled  = "student.enrolled"
	TypeUpdated   = "student.updated"
	TypeWithdrawn = "student.withdrawn"
)

const (
	EncodingJSON  = "json"
	EncodingProto = "proto"
)

type Event struct {
	ID           string                `json:"id"`
	Type         string                `json:"type"`
	EnrollmentNo string                `json:"enrollment_no"`
	Student      *common.StudentRecord `json:"student,omitempty"`
	At           time.Time             `json:"at"`
}

// NewEvent stamps a fresh id and time. student may be nil for withdrawals.
func NewEvent(typ, enrollmentNo string, student *common.StudentRecord) Event {
	return Event{
		ID:           uuid.NewString(),
		Type:         typ,
		EnrollmentNo: enrollmentNo,
		Student:      student,
		At:           time.Now().UTC(),
	}
}

// Encode serializes ev as JSON or as a protobuf Struct.
func Encode(ev Event, encoding string) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, errors.Wrap(err, "marshal event")
	}
	switch encoding {
	case EncodingJSON, "":
		return data, nil
	case EncodingProto:
		var fields map[string]interface{}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, errors.Wrap(err, "flatten event")
		}
		s, err := structpb.NewStruct(fields)
		if err != nil {
			return nil, errors.Wrap(err, "build struct")
		}
		return proto.Marshal(s)
	default:
		return nil, errors.Errorf("unknown encoding %q", encoding)
	}
}

func Decode(data []byte, encoding string) (Event, error) {
	var ev Event
	switch encoding {
	case EncodingJSON, "":
	case EncodingProto:
		var s structpb.Struct
		if err := proto.Unmarshal(data, &s); err != nil {
			return ev, errors.Wrap(err, "unmarshal struct")
		}
		var err error
		if data, err = json.Marshal(s.AsMap()); err != nil {
			return ev, errors.Wrap(err, "flatten struct")
		}
	default:
		return ev, errors.Errorf("unknown encoding %q", encoding)
	}
	err := json.Unmarshal(data, &ev)
	return ev, errors.Wrap(err, "unmarshal event")
}
