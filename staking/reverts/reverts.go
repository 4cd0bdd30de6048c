// Copyright (c) 2026 The Vesta developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts declares the validation failures of the staking module.
// Every mutating operation validates all preconditions before any state
// write; on failure the sentinel is returned verbatim and zero mutation
// has occurred.
package reverts

import "github.com/pkg/errors"

var (
	// ErrNotController is returned when the account is not a controller.
	ErrNotController = errors.New("not a controller account")
	// ErrNotStash is returned when the account is not a stash.
	ErrNotStash = errors.New("not a stash account")
	// ErrAlreadyBonded is returned when the stash is already bonded.
	ErrAlreadyBonded = errors.New("stash is already bonded")
	// ErrAlreadyPaired is returned when the controller already owns a ledger.
	ErrAlreadyPaired = errors.New("controller is already paired")
	// ErrEmptyTargets is returned when a nomination has no targets.
	ErrEmptyTargets = errors.New("targets cannot be empty")
	// ErrDuplicateIndex is returned when a slash cancellation repeats an index.
	ErrDuplicateIndex = errors.New("duplicate index")
	// ErrInvalidSlashIndex is returned when a slash record index is out of bounds.
	ErrInvalidSlashIndex = errors.New("slash record index out of bounds")
	// ErrInsufficientValue is returned when bonding below the minimum balance.
	ErrInsufficientValue = errors.New("cannot bond with value less than minimum balance")
	// ErrNoMoreChunks is returned when the unlocking queue is full.
	ErrNoMoreChunks = errors.New("cannot schedule more unlock chunks")
	// ErrExceedLimit is returned when bonding beyond the stake limit.
	ErrExceedLimit = errors.New("cannot bond with more than limit")
	// ErrNoWorkloads is returned when no workload backs the stake limit.
	ErrNoWorkloads = errors.New("cannot validate without workloads")
)
