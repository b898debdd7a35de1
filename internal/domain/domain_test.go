package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
)

func wahealthRecord() domain.Record {
	return domain.Record{
		Schema: domain.WAHealth,
		Values: map[string]string{
			"datentime": "10:00am to 11:00am 1/1/2024",
			"suburb":    "Perth",
			"location":  "Cafe X",
			"updated":   "2/1/2024",
			"advice":    "Get tested",
		},
	}
}

func TestRecordKeyExcludesMutableFields(t *testing.T) {
	key := wahealthRecord().Key()
	assert.Equal(t, map[string]string{
		"datentime": "10:00am to 11:00am 1/1/2024",
		"suburb":    "Perth",
		"location":  "Cafe X",
	}, key)
	assert.NotContains(t, key, "advice")
	assert.NotContains(t, key, "updated")
}

func TestRecordMutableSubset(t *testing.T) {
	assert.Equal(t, map[string]string{
		"updated": "2/1/2024",
		"advice":  "Get tested",
	}, wahealthRecord().Mutable())

	// sources without mutable fields yield an empty set
	assert.Empty(t, domain.Record{Schema: domain.Sheet, Values: map[string]string{}}.Mutable())
}

func TestRecordKeyStringStableAndDistinct(t *testing.T) {
	a := wahealthRecord()
	b := wahealthRecord()
	assert.Equal(t, a.KeyString(), b.KeyString())

	b.Values["advice"] = "reworded advice"
	assert.Equal(t, a.KeyString(), b.KeyString(), "advisory rewording keeps the key")

	b.Values["location"] = "Cafe Y"
	assert.NotEqual(t, a.KeyString(), b.KeyString())
}

func TestSchemaFieldNamesOrder(t *testing.T) {
	assert.Equal(t,
		[]string{"datentime", "suburb", "location", "updated", "advice"},
		domain.WAHealth.FieldNames())
}

func TestSchemaByName(t *testing.T) {
	for _, schema := range domain.Schemas() {
		assert.Same(t, schema, domain.SchemaByName(schema.Name))
	}
	assert.Nil(t, domain.SchemaByName("nope"))
}

func TestSchemaKeyAndMutableFieldsAreDeclared(t *testing.T) {
	for _, schema := range domain.Schemas() {
		declared := make(map[string]bool)
		for _, name := range schema.FieldNames() {
			declared[name] = true
		}
		for _, name := range schema.KeyFields {
			assert.True(t, declared[name], "%s key field %s", schema.Name, name)
		}
		for _, name := range schema.MutableFields {
			assert.True(t, declared[name], "%s mutable field %s", schema.Name, name)
		}
		require.NotEmpty(t, schema.KeyFields, schema.Name)
	}
}

func TestClassificationString(t *testing.T) {
	assert.Equal(t, "new", domain.New.String())
	assert.Equal(t, "unchanged", domain.Unchanged.String())
	assert.Equal(t, "updated", domain.Updated.String())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, domain.ExitSuccess},
		{"fetch", &domain.FetchError{Source: "wahealth", Err: errors.New("down")}, domain.ExitFetch},
		{"wrapped fetch", fmt.Errorf("run: %w", &domain.FetchError{Source: "uwa", Err: errors.New("down")}), domain.ExitFetch},
		{"storage", &domain.StorageError{Op: "insert", Err: errors.New("locked")}, domain.ExitStorage},
		{"delivery", &domain.DeliveryError{Channel: "dreamhost", Critical: true, Err: errors.New("403")}, domain.ExitDelivery},
		{"other", errors.New("bad flag"), domain.ExitConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ExitCode(tt.err))
		})
	}
}

func TestErrorMessagesNameTheirSubject(t *testing.T) {
	fetchErr := &domain.FetchError{Source: "wahealth", Err: errors.New("connection refused")}
	assert.Contains(t, fetchErr.Error(), "wahealth")
	assert.ErrorContains(t, fetchErr, "connection refused")

	deliveryErr := &domain.DeliveryError{Channel: "discord", Err: errors.New("401")}
	assert.Contains(t, deliveryErr.Error(), "discord")
}
