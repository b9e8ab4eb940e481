package vturesults

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	require.Equal(t, OutcomeInvalidCaptcha, Classify("<html><body>Invalid captcha code !!!</body></html>"))
	require.Equal(t, OutcomeSuccess, Classify("<html><body><table>results here</table></body></html>"))
	// unknown server messages pass through as success on purpose
	require.Equal(t, OutcomeSuccess, Classify("University Seat Number is not available or Invalid..!"))
	require.Equal(t, OutcomeSuccess, Classify(""))
}

func TestClassifyFailure(t *testing.T) {
	require.Equal(t, FailureTokenNotFound, ClassifyFailure(ErrTokenNotFound).Kind)
	require.Equal(t, FailureRetriesExhausted, ClassifyFailure(&RetriesExhaustedError{Attempts: 5}).Kind)
	require.Equal(t, FailureTransportError, ClassifyFailure(errors.New("connection refused")).Kind)
}
