package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/justyntemme/deskshell/internal/debug"
)

// Request is one line read by the server.
type Request struct {
	ID   json.RawMessage `json:"id"`
	Cmd  string          `json:"cmd"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Response is one line written by the server: {"id","result"} on success,
// {"id","error"} on failure. A nil result is written as null.
type Response struct {
	ID     json.RawMessage
	Result any
	Error  string
}

func (r Response) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			ID    json.RawMessage `json:"id"`
			Error string          `json:"error"`
		}{r.ID, r.Error})
	}
	return json.Marshal(struct {
		ID     json.RawMessage `json:"id"`
		Result any             `json:"result"`
	}{r.ID, r.Result})
}

// maxLine bounds a single request line.
const maxLine = 4 << 20

// Server answers newline-delimited JSON requests. Requests run concurrently
// and responses are written as they complete, so callers match them by id.
type Server struct {
	Dispatcher *Dispatcher

	mu  sync.Mutex
	enc *json.Encoder
}

// Serve reads requests from r until EOF or ctx is done, then waits for the
// requests in flight before returning.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.enc = json.NewEncoder(w)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	defer wg.Wait()

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), maxLine)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if len(line) == 0 {
				continue
			}
			var req Request
			if err := json.Unmarshal(line, &req); err != nil {
				s.write(Response{ID: json.RawMessage("null"), Error: "malformed request: " + err.Error()})
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.handle(ctx, req)
			}()
		}
	}
}

func (s *Server) handle(ctx context.Context, req Request) {
	id := req.ID
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	result, err := s.Dispatcher.Invoke(ctx, req.Cmd, req.Args)
	if err != nil {
		debug.Log(debug.BRIDGE, "%s failed: %v", req.Cmd, err)
		s.write(Response{ID: id, Error: err.Error()})
		return
	}
	s.write(Response{ID: id, Result: result})
}

func (s *Server) write(resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(resp); err != nil {
		debug.Log(debug.BRIDGE, "write response: %v", err)
	}
}
