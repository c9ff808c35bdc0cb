package measure

import (
	"github.com/kvieira/tboxtiming/internal/block"
	"github.com/kvieira/tboxtiming/internal/cycletimer"
	"github.com/kvieira/tboxtiming/internal/oracle"
)

// OracleTimer is the production TimedEncrypter: it reads the Cycle Timer
// immediately before and after a single Oracle.Encrypt call.
type OracleTimer struct {
	Oracle oracle.Oracle
	Timer  cycletimer.Timer
}

// EncryptTimed encrypts p and returns the ciphertext along with the tick
// delta measured around the single Encrypt call.
func (ot OracleTimer) EncryptTimed(p block.Block) (block.Block, block.Tick) {
	start := ot.Timer.Now()
	ct := ot.Oracle.Encrypt(p)
	end := ot.Timer.Now()
	return ct, end - start
}
