package sandbox

import (
	"testing"

	"github.com/natsukagami/kjudge-core/models"
	"github.com/stretchr/testify/require"
)

func TestInterpretMetaAccepted(t *testing.T) {
	meta := map[string]string{"time": "0.042", "exitcode": "0", "exitsig": "0"}
	res := interpretMeta(meta, "3\n", "  3  ")
	require.Equal(t, models.Accepted, res.Verdict)
	require.Equal(t, 42, res.ElapsedMs)
}

func TestInterpretMetaWrongAnswer(t *testing.T) {
	meta := map[string]string{"time": "0.010"}
	res := interpretMeta(meta, "4", "3")
	require.Equal(t, models.WrongAnswer, res.Verdict)
}

func TestInterpretMetaRuntimeErrorOnNonZeroExit(t *testing.T) {
	meta := map[string]string{"exitcode": "1", "time": "0.005"}
	res := interpretMeta(meta, "3", "3")
	require.Equal(t, models.RuntimeError, res.Verdict)
}

func TestInterpretMetaTimeLimitExceeded(t *testing.T) {
	meta := map[string]string{"killed": "1", "status": "TO", "time": "1.000"}
	res := interpretMeta(meta, "", "3")
	require.Equal(t, models.TimeLimitExceeded, res.Verdict)
	require.Equal(t, 1000, res.ElapsedMs)
}

func TestInterpretMetaSignalledIsRuntimeErrorWithoutOOM(t *testing.T) {
	meta := map[string]string{"killed": "1", "status": "SG", "time": "0.020"}
	res := interpretMeta(meta, "", "3")
	require.Equal(t, models.RuntimeError, res.Verdict)
}

func TestInterpretMetaSignalledIsMemoryLimitExceededOnOOM(t *testing.T) {
	meta := map[string]string{"killed": "1", "status": "SG", "cg-oom-killed": "1", "time": "0.020"}
	res := interpretMeta(meta, "", "3")
	require.Equal(t, models.MemoryLimitExceeded, res.Verdict)
}

func TestInterpretMetaUnknownKilledStatusIsInternalError(t *testing.T) {
	meta := map[string]string{"killed": "1", "status": "XX", "time": "0.020"}
	res := interpretMeta(meta, "", "3")
	require.Equal(t, models.InternalError, res.Verdict)
}
