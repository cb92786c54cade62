package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordGrant(t *testing.T) {
	success := testutil.ToFloat64(GrantAttachments.WithLabelValues("success", ""))
	failure := testutil.ToFloat64(GrantAttachments.WithLabelValues("failure", "no_token"))

	RecordGrantSuccess()
	RecordGrantFailure("no_token")
	RecordGrantFailure("no_token")

	assert.Equal(t, success+1, testutil.ToFloat64(GrantAttachments.WithLabelValues("success", "")))
	assert.Equal(t, failure+2, testutil.ToFloat64(GrantAttachments.WithLabelValues("failure", "no_token")))
}

func TestRecordTokenParsed(t *testing.T) {
	valid := testutil.ToFloat64(TokensParsed.WithLabelValues("valid"))
	malformed := testutil.ToFloat64(TokensParsed.WithLabelValues("malformed"))

	RecordTokenParsed(false)
	RecordTokenParsed(true)

	assert.Equal(t, valid+1, testutil.ToFloat64(TokensParsed.WithLabelValues("valid")))
	assert.Equal(t, malformed+1, testutil.ToFloat64(TokensParsed.WithLabelValues("malformed")))
}

func TestRecordAuthorization(t *testing.T) {
	allowed := testutil.ToFloat64(AuthorizationChecks.WithLabelValues("allowed", ""))
	denied := testutil.ToFloat64(AuthorizationChecks.WithLabelValues("denied", "missing_role"))

	RecordAuthorizationAllowed()
	RecordAuthorizationDenied("missing_role")

	assert.Equal(t, allowed+1, testutil.ToFloat64(AuthorizationChecks.WithLabelValues("allowed", "")))
	assert.Equal(t, denied+1, testutil.ToFloat64(AuthorizationChecks.WithLabelValues("denied", "missing_role")))
}
