package walletd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/npratt/walletshell/internal/lifecycle"
)

// ErrBadOutput is returned when a helper command prints something other
// than the expected JSON object.
var ErrBadOutput = errors.New("unexpected daemon output")

// Balance is a confirmed/unconfirmed pair in one currency.
type Balance struct {
	Confirmed   float64
	Unconfirmed float64
}

// ParseStatus reads {"daemonState","walletState","lockState"}. State names
// are matched case-insensitively; walletState and lockState may be absent
// while the daemon is still starting.
func ParseStatus(raw []byte) (lifecycle.DaemonStatus, error) {
	if !gjson.ValidBytes(raw) {
		return lifecycle.DaemonStatus{}, fmt.Errorf("%w: status is not JSON", ErrBadOutput)
	}
	fields := gjson.GetManyBytes(raw, "daemonState", "walletState", "lockState")
	if fields[0].Type != gjson.String {
		return lifecycle.DaemonStatus{}, fmt.Errorf("%w: status has no daemonState", ErrBadOutput)
	}
	return lifecycle.DaemonStatus{
		DaemonState: lifecycle.DaemonState(strings.ToUpper(fields[0].Str)),
		WalletState: lifecycle.WalletState(strings.ToUpper(fields[1].String())),
		LockState:   lifecycle.LockState(strings.ToUpper(fields[2].String())),
	}, nil
}

// ParseBalance reads {"confirmed","unconfirmed"}. Amounts may be numbers or
// numeric strings, as daemons print large values quoted.
func ParseBalance(raw []byte) (Balance, error) {
	if !gjson.ValidBytes(raw) {
		return Balance{}, fmt.Errorf("%w: balance is not JSON", ErrBadOutput)
	}
	names := []string{"confirmed", "unconfirmed"}
	fields := gjson.GetManyBytes(raw, names...)
	var amounts [2]float64
	for i, f := range fields {
		v, ok := amount(f)
		if !ok {
			return Balance{}, fmt.Errorf("%w: %s is not a number", ErrBadOutput, names[i])
		}
		amounts[i] = v
	}
	return Balance{Confirmed: amounts[0], Unconfirmed: amounts[1]}, nil
}

func amount(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Num, true
	case gjson.String:
		v := gjson.Parse(r.Str)
		if v.Type != gjson.Number {
			return 0, false
		}
		return v.Num, true
	default:
		return 0, false
	}
}
