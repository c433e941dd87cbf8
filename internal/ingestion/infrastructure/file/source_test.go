package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ingestdom "github.com/dmehra2102/Kitchen-Unit/internal/ingestion/domain"
)

func drain(t *testing.T, s *Source) (ids []string, malformed int, err error) {
	t.Helper()
	for {
		d, err := s.Next(context.Background())
		switch {
		case err == nil:
			ids = append(ids, d.Record.ID)
		case err == io.EOF:
			return ids, malformed, nil
		case errors.Is(err, ingestdom.ErrMalformedRecord):
			malformed++
		default:
			return ids, malformed, err
		}
	}
}

func TestReadsJSONArray(t *testing.T) {
	in := `
	[
	  {"id":"a","name":"Banana Split","temp":"frozen","shelfLife":20,"decayRate":0.63},
	  {"id":"b","name":"McFlury","temp":"frozen","shelfLife":375,"decayRate":0.4}
	]`
	ids, malformed, err := drain(t, New(strings.NewReader(in)))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.Zero(t, malformed)
}

func TestReadsConcatenatedObjects(t *testing.T) {
	in := `{"id":"a","temp":"hot","shelfLife":1,"decayRate":1}
{"id":"b","temp":"cold","shelfLife":1,"decayRate":1}{"id":"c","temp":"hot","shelfLife":1,"decayRate":1}`
	ids, _, err := drain(t, New(strings.NewReader(in)))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestMalformedRecordDoesNotEndStream(t *testing.T) {
	in := `[{"id":"a","temp":"hot","shelfLife":1,"decayRate":1},{"id":"b","shelfLife":"long"},{"id":"c","temp":"hot","shelfLife":1,"decayRate":1}]`
	ids, malformed, err := drain(t, New(strings.NewReader(in)))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids)
	assert.Equal(t, 1, malformed)
}

func TestTruncatedInputFails(t *testing.T) {
	_, _, err := drain(t, New(strings.NewReader(`[{"id":"a","temp":"hot","shelfLife":1,"decayRate":1},{"id":`)))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ingestdom.ErrMalformedRecord)
}

func TestEmptyInput(t *testing.T) {
	ids, _, err := drain(t, New(strings.NewReader("  \n")))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"z","temp":"cold","shelfLife":3,"decayRate":0.5}]`), 0o600))

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	ids, _, err := drain(t, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, ids)

	_, err = Open(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
