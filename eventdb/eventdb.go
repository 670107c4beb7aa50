// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb persists completed escrow mutations in sqlite so they
// can be filtered and paged without replaying state history.
package eventdb

import (
	"database/sql"
	"fmt"
	"math/big"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/veldlabs/veld/escrow"
	"github.com/veldlabs/veld/veld"
)

const eventTableSchema = `
create table if not exists event (
	seq integer primary key autoincrement,
	kind varchar(32),
	account char(42),
	amount blob,
	unlockTime decimal(20,0),
	blockTime decimal(20,0),
	blockNumber decimal(10,0),
	supplyAfter blob
);

CREATE INDEX if not exists accountIndex on event(account);
CREATE INDEX if not exists blockNumberIndex on event(blockNumber);
`

// EventDB manages the escrow event log.
type EventDB struct {
	path          string
	db            *sql.DB
	sqliteVersion string
}

// New opens an event db at the given path, creating the schema when absent.
func New(path string) (*EventDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}
	s, _, _ := sqlite3.Version()
	return &EventDB{
		path:          path,
		db:            db,
		sqliteVersion: s,
	}, nil
}

// NewMem creates a memory backed event db.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Insert appends events to the log.
func (db *EventDB) Insert(events []*escrow.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	for _, ev := range events {
		if _, err = tx.Exec("INSERT INTO event(kind, account, amount, unlockTime, blockTime, blockNumber, supplyAfter) VALUES ( ?, ?, ?, ?, ?, ?, ?); ",
			ev.Kind.String(),
			ev.Account.String(),
			ev.Amount.Bytes(),
			ev.UnlockTime,
			ev.Time,
			ev.Block,
			ev.SupplyAfter.Bytes()); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (db *EventDB) query(stmt string, args ...interface{}) ([]*Event, error) {
	rows, err := db.db.Query(stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			kind        string
			account     string
			amount      []byte
			unlockTime  uint64
			blockTime   uint64
			blockNumber uint32
			supplyAfter []byte
		)
		if err := rows.Scan(
			&kind,
			&account,
			&amount,
			&unlockTime,
			&blockTime,
			&blockNumber,
			&supplyAfter,
		); err != nil {
			return nil, err
		}
		addr, err := veld.ParseAddress(account)
		if err != nil {
			return nil, err
		}
		events = append(events, &Event{
			Kind:        kind,
			Account:     addr,
			Amount:      new(big.Int).SetBytes(amount),
			UnlockTime:  unlockTime,
			BlockTime:   blockTime,
			BlockNumber: blockNumber,
			SupplyAfter: new(big.Int).SetBytes(supplyAfter),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Filter returns events matching the given filter. A nil filter returns
// the whole log in insertion order.
func (db *EventDB) Filter(filter *Filter) ([]*Event, error) {
	if filter == nil {
		return db.query("SELECT kind, account, amount, unlockTime, blockTime, blockNumber, supplyAfter FROM event ORDER BY seq ASC")
	}
	stmt := "SELECT kind, account, amount, unlockTime, blockTime, blockNumber, supplyAfter FROM event WHERE 1"
	var args []interface{}
	if filter.Account != nil {
		stmt += " AND account = ?"
		args = append(args, filter.Account.String())
	}
	if filter.Kind != nil {
		stmt += " AND kind = ?"
		args = append(args, *filter.Kind)
	}
	if filter.Range != nil {
		if filter.Range.Unit == Time {
			stmt += " AND blockTime >= ? AND blockTime <= ?"
		} else {
			stmt += " AND blockNumber >= ? AND blockNumber <= ?"
		}
		args = append(args, filter.Range.From, filter.Range.To)
	}
	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}
	if filter.Options != nil {
		stmt += " LIMIT ? OFFSET ?"
		args = append(args, filter.Options.Limit, filter.Options.Offset)
	}
	return db.query(stmt, args...)
}

// Path returns the db file path.
func (db *EventDB) Path() string {
	return db.path
}

// Close closes the sqlite db.
func (db *EventDB) Close() {
	db.db.Close()
}

func (db *EventDB) String() string {
	return fmt.Sprintf("EventDB(%v, sqlite %v)", db.path, db.sqliteVersion)
}
