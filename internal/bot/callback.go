package bot

import (
	"fmt"
	"strconv"
	"strings"
)

const callbackPrefix = "hd"

const (
	VerbApprove = "approve"
	VerbReject  = "reject"
)

// CallbackAction is a parsed prompt button click, "hd:<verb>:<request-id>".
type CallbackAction struct {
	Verb      string
	RequestID int64
}

func ParseCallback(data string) (CallbackAction, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != callbackPrefix {
		return CallbackAction{}, fmt.Errorf("malformed callback data %q", data)
	}

	verb := parts[1]
	if verb != VerbApprove && verb != VerbReject {
		return CallbackAction{}, fmt.Errorf("unknown callback verb %q", verb)
	}

	requestID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || requestID <= 0 {
		return CallbackAction{}, fmt.Errorf("bad request id in callback data %q", data)
	}

	return CallbackAction{Verb: verb, RequestID: requestID}, nil
}
