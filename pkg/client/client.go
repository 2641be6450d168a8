package client

import (
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"rollcall/pkg/common"
	"rollcall/pkg/protocol"
)

var (
	// ErrNotFound is returned for lookups and withdrawals of unknown students.
	ErrNotFound  = common.ErrStudentNotFound
	ErrDuplicate = common.ErrDuplicateEnrollment
	ErrInvalid   = common.ErrInvalidRecord
)

// Client speaks the binary protocol to a rollcall server. It is safe for
// concurrent use; requests are serialized over one connection.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	addr string
}

func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn: conn,
		addr: addr,
	}, nil
}

func (c *Client) Enroll(rec common.StudentRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pkg, err := c.roundTrip(protocol.OpEnroll, nil, body, false)
	if err != nil {
		return err
	}
	return expectOK(pkg)
}

func (c *Client) Get(enrollmentNo string) (common.StudentRecord, error) {
	var rec common.StudentRecord
	err := c.query(protocol.OpGet, enrollmentNo, &rec)
	return rec, err
}

func (c *Client) Withdraw(enrollmentNo string) error {
	pkg, err := c.roundTrip(protocol.OpWithdraw, []byte(enrollmentNo), nil, false)
	if err != nil {
		return err
	}
	return expectOK(pkg)
}

func (c *Client) List() ([]common.StudentRecord, error) {
	var recs []common.StudentRecord
	err := c.query(protocol.OpList, "", &recs)
	return recs, err
}

func (c *Client) FindByRoll(rollNo int) (common.StudentRecord, error) {
	var rec common.StudentRecord
	err := c.query(protocol.OpFindRoll, strconv.Itoa(rollNo), &rec)
	return rec, err
}

func (c *Client) FindByDivision(divisionID int64) ([]common.StudentRecord, error) {
	var recs []common.StudentRecord
	err := c.query(protocol.OpFindDivision, strconv.FormatInt(divisionID, 10), &recs)
	return recs, err
}

func (c *Client) FindByName(text string) ([]common.StudentRecord, error) {
	var recs []common.StudentRecord
	err := c.query(protocol.OpFindName, text, &recs)
	return recs, err
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

func (c *Client) query(op byte, key string, out interface{}) error {
	pkg, err := c.roundTrip(op, []byte(key), nil, true)
	if err != nil {
		return err
	}
	if pkg.Op == protocol.RespVal {
		return json.Unmarshal(pkg.Value, out)
	}
	if err := respError(pkg); err != nil {
		return err
	}
	return errors.New("unknown response")
}

func expectOK(pkg *protocol.Packet) error {
	if pkg.Op == protocol.RespOK {
		return nil
	}
	if err := respError(pkg); err != nil {
		return err
	}
	return errors.New("operation failed")
}

// respError maps error replies back to the common sentinels.
func respError(pkg *protocol.Packet) error {
	switch pkg.Op {
	case protocol.RespNotFound:
		return ErrNotFound
	case protocol.RespConflict:
		return ErrDuplicate
	case protocol.RespInvalid:
		return ErrInvalid
	case protocol.RespErr:
		return errors.New(string(pkg.Value))
	}
	return nil
}

// roundTrip sends one request and reads the reply. A failed write is retried
// once on a fresh connection; a failed read is retried only for idempotent
// requests.
func (c *Client) roundTrip(op byte, key, val []byte, idempotent bool) (*protocol.Packet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := protocol.Encode(c.conn, op, key, val); err != nil {
		return c.reconnectAndRetry(op, key, val)
	}
	pkg, err := protocol.Decode(c.conn)
	if err != nil && idempotent {
		return c.reconnectAndRetry(op, key, val)
	}
	return pkg, err
}

func (c *Client) reconnectAndRetry(op byte, key, val []byte) (*protocol.Packet, error) {
	c.conn.Close()
	conn, err := net.DialTimeout("tcp", c.addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	c.conn = conn

	if err := protocol.Encode(c.conn, op, key, val); err != nil {
		return nil, err
	}
	return protocol.Decode(c.conn)
}
