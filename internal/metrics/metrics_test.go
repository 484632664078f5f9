package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/tags", "200"))

	RecordHTTPRequest("GET", "/api/tags", 200, 15*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/tags", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordRecipeWriteAndToggle(t *testing.T) {
	created := testutil.ToFloat64(RecipesWritten.WithLabelValues("create"))
	added := testutil.ToFloat64(RelationsToggled.WithLabelValues("favorite", "add"))

	RecordRecipeWrite("create")
	RecordToggle("favorite", "add")

	assert.Equal(t, created+1, testutil.ToFloat64(RecipesWritten.WithLabelValues("create")))
	assert.Equal(t, added+1, testutil.ToFloat64(RelationsToggled.WithLabelValues("favorite", "add")))
}
