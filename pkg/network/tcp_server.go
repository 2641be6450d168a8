package network

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"strconv"
	"sync"

	"rollcall/pkg/common"
	"rollcall/pkg/core"
	"rollcall/pkg/protocol"
)

type TCPServer struct {
	registry *core.Registry

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

func NewTCPServer(registry *core.Registry) *TCPServer {
	return &TCPServer{
		registry: registry,
		conns:    make(map[net.Conn]struct{}),
	}
}

func (s *TCPServer) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("[TCP] Listening on %s (Binary Protocol)", addr)
	return s.Serve(listener)
}

// Serve accepts connections until Close is called.
func (s *TCPServer) Serve(listener net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return listener.Close()
	}
	s.listener = listener
	s.mu.Unlock()

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			log.Printf("[TCP] Accept error: %v", err)
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return nil
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.handleConn(conn)
	}
}

func (s *TCPServer) Close() error {
	s.mu.Lock()
	s.closed = true
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

func (s *TCPServer) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		req, err := protocol.Decode(conn)
		if err != nil {
			if err != io.EOF && !errors.Is(err, net.ErrClosed) {
				log.Printf("[TCP] Decode error from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		op, val := s.dispatch(req)
		if err := protocol.Encode(conn, op, nil, val); err != nil {
			log.Printf("[TCP] Write to %s failed: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

func (s *TCPServer) dispatch(req *protocol.Packet) (byte, []byte) {
	ctx := context.Background()
	key := string(req.Key)

	switch req.Op {
	case protocol.OpEnroll:
		var rec common.StudentRecord
		if err := json.Unmarshal(req.Value, &rec); err != nil {
			return protocol.RespErr, []byte("invalid record body")
		}
		return result(s.registry.Enroll(ctx, rec))

	case protocol.OpGet:
		rec, err := s.registry.Lookup(key)
		if err != nil {
			return result(err)
		}
		return values(rec)

	case protocol.OpWithdraw:
		return result(s.registry.Withdraw(ctx, key))

	case protocol.OpList:
		return values(s.registry.List())

	case protocol.OpFindRoll:
		roll, err := strconv.Atoi(key)
		if err != nil {
			return protocol.RespErr, []byte("roll number must be an integer")
		}
		rec, err := s.registry.LookupRoll(roll)
		if err != nil {
			return result(err)
		}
		return values(rec)

	case protocol.OpFindDivision:
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return protocol.RespErr, []byte("division id must be an integer")
		}
		return values(s.registry.ListDivision(id))

	case protocol.OpFindName:
		return values(s.registry.SearchName(key))

	default:
		return protocol.RespErr, []byte("unknown op " + strconv.Itoa(int(req.Op)))
	}
}

func result(err error) (byte, []byte) {
	switch {
	case err == nil:
		return protocol.RespOK, nil
	case errors.Is(err, common.ErrStudentNotFound):
		return protocol.RespNotFound, nil
	case errors.Is(err, common.ErrDuplicateEnrollment):
		return protocol.RespConflict, []byte(err.Error())
	case errors.Is(err, common.ErrInvalidRecord):
		return protocol.RespInvalid, []byte(err.Error())
	default:
		return protocol.RespErr, []byte(err.Error())
	}
}

func values(v interface{}) (byte, []byte) {
	data, err := json.Marshal(v)
	if err != nil {
		return protocol.RespErr, []byte(err.Error())
	}
	if len(data) > protocol.MaxValueLen {
		log.Printf("[TCP] Reply of %d bytes exceeds frame limit", len(data))
		return protocol.RespErr, []byte(protocol.ErrValueTooLarge.Error())
	}
	return protocol.RespVal, data
}
