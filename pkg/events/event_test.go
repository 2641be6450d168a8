package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/pkg/common"
	"rollcall/pkg/config"
)

func TestEncodeDecode(t *testing.T) {
	rec := &common.StudentRecord{
		StudentID:    1200,
		EnrollmentNo: "EN2024017",
		RollNo:       17,
		Name:         "Asha Patil",
		DivisionID:   3,
	}
	ev := NewEvent(TypeEnrolled, rec.EnrollmentNo, rec)

	_, err := uuid.Parse(ev.ID)
	require.NoError(t, err)

	for _, enc := range []string{EncodingJSON, EncodingProto} {
		t.Run(enc, func(t *testing.T) {
			data, err := Encode(ev, enc)
			require.NoError(t, err)

			got, err := Decode(data, enc)
			require.NoError(t, err)
			assert.Equal(t, ev.ID, got.ID)
			assert.Equal(t, ev.Type, got.Type)
			assert.Equal(t, ev.EnrollmentNo, got.EnrollmentNo)
			assert.True(t, ev.At.Equal(got.At))
			require.NotNil(t, got.Student)
			assert.Equal(t, *rec, *got.Student)
		})
	}
}

func TestEncodeWithdrawnHasNoStudent(t *testing.T) {
	ev := NewEvent(TypeWithdrawn, "EN001", nil)
	data, err := Encode(ev, EncodingProto)
	require.NoError(t, err)

	got, err := Decode(data, EncodingProto)
	require.NoError(t, err)
	assert.Nil(t, got.Student)
	assert.Equal(t, TypeWithdrawn, got.Type)
}

func TestUnknownEncoding(t *testing.T) {
	_, err := Encode(NewEvent(TypeUpdated, "EN001", nil), "xml")
	assert.Error(t, err)
	_, err = Decode([]byte("{}"), "xml")
	assert.Error(t, err)
}

func TestNewPublisher(t *testing.T) {
	p := New(config.EventsConfig{})
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), NewEvent(TypeEnrolled, "EN001", nil)))
	assert.NoError(t, p.Close())

	kp := New(config.EventsConfig{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: "t", Encoding: EncodingJSON})
	assert.IsType(t, &KafkaPublisher{}, kp)
	assert.NoError(t, kp.Close())
}
