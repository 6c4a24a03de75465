// Copyright 2026 DecentraMind Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"errors"

	"connectrpc.com/connect"
	"github.com/decentramind-labs/govengine/governance"
)

// ErrorKindHeader carries the governance error kind in connect error metadata
const ErrorKindHeader = "Govengine-Error-Kind"

var kindCodes = map[error]connect.Code{
	governance.ErrNotFound:                   connect.CodeNotFound,
	governance.ErrInvalidArgument:            connect.CodeInvalidArgument,
	governance.ErrImmutableField:             connect.CodeInvalidArgument,
	governance.ErrInvalidPhase:               connect.CodeFailedPrecondition,
	governance.ErrNotApproved:                connect.CodeFailedPrecondition,
	governance.ErrAlreadyEndorsed:            connect.CodeAlreadyExists,
	governance.ErrDuplicateVote:              connect.CodeAlreadyExists,
	governance.ErrAlreadyExecuted:            connect.CodeAlreadyExists,
	governance.ErrInsufficientPower:          connect.CodePermissionDenied,
	governance.ErrInsufficientCreatorBalance: connect.CodePermissionDenied,
	governance.ErrUnauthorized:               connect.CodePermissionDenied,
	governance.ErrProviderUnavailable:        connect.CodeUnavailable,
}

// toConnectError converts an engine error into a connect error with a code
// matching its kind
func toConnectError(err error) error {
	kind := governance.Kind(err)
	code, ok := kindCodes[kind]
	if !ok {
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
	ret := connect.NewError(code, err)
	ret.Meta().Set(ErrorKindHeader, governance.KindName(err))
	return ret
}

// FromError restores the governance error kind of an error returned by a
// Client, so callers can use errors.Is with the governance sentinels
func FromError(err error) error {
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return err
	}
	name := connectErr.Meta().Get(ErrorKindHeader)
	for kind := range kindCodes {
		if governance.KindName(kind) == name {
			return &kindError{kind: kind, err: connectErr}
		}
	}
	return err
}

type kindError struct {
	kind error
	err  *connect.Error
}

func (e *kindError) Error() string {
	return e.err.Message()
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.err}
}
