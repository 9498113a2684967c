package cli

import (
	"testing"

	"go.viam.com/mecadrive/testutils"
)

func TestMain(m *testing.M) {
	testutils.VerifyTestMain(m)
}
