package api

import "net/http"

// Encoding says where a route's fields travel.
type Encoding int

const (
	JSONBody Encoding = iota
	FormBody
	Query
)

// Field maps a command argument onto a wire parameter.
type Field struct {
	Arg      string // Argument name, snake_case
	Param    string // Wire name; Arg when empty
	Optional bool
}

func (f Field) param() string {
	if f.Param != "" {
		return f.Param
	}
	return f.Arg
}

// Route describes one REST call reachable as a command.
type Route struct {
	Name     string
	Method   string
	Path     string
	Encoding Encoding
	Fields   []Field

	// Auth sends the "token" argument as the Authorization header.
	Auth bool
	// CheckStatus turns a non-2xx response into a *StatusError.
	CheckStatus bool
	// FirstOf sends only the first optional field that is present.
	FirstOf bool
	// Extract reduces a successful body to the returned string.
	Extract func(body []byte) (string, error)
}

var routes = []Route{
	{
		Name: "login", Method: http.MethodPost, Path: "/login", Encoding: JSONBody,
		Fields: []Field{{Arg: "phone"}, {Arg: "password"}},
	},
	{
		Name: "send_verification_code", Method: http.MethodPost, Path: "/send_verification_code", Encoding: FormBody,
		Fields: []Field{{Arg: "phone"}},
	},
	{
		Name: "register_account", Method: http.MethodPost, Path: "/register", Encoding: FormBody,
		Fields: []Field{{Arg: "phone"}, {Arg: "password"}, {Arg: "verification_code"}},
	},
	{
		Name: "reset_password", Method: http.MethodPost, Path: "/verify_and_set_password", Encoding: FormBody,
		Fields: []Field{{Arg: "phone"}, {Arg: "new_password"}, {Arg: "verification_code"}},
	},
	{
		Name: "get_course_schedule", Method: http.MethodGet, Path: "/course-schedule", Encoding: Query,
		Fields: []Field{{Arg: "class_id"}, {Arg: "term", Optional: true}},
		Auth:   true, CheckStatus: true,
	},
	{
		Name: "get_user_friends", Method: http.MethodGet, Path: "/friends", Encoding: Query,
		Fields: []Field{{Arg: "id_card"}},
		Auth:   true, CheckStatus: true,
	},
	{
		Name: "get_teacher_classes", Method: http.MethodGet, Path: "/teachers/classes", Encoding: Query,
		Fields: []Field{{Arg: "teacher_unique_id"}},
		Auth:   true, CheckStatus: true,
	},
	{
		Name: "get_user_info", Method: http.MethodGet, Path: "/userInfo", Encoding: Query,
		Fields: []Field{{Arg: "phone", Optional: true}, {Arg: "user_id", Param: "userid", Optional: true}},
		Auth:   true, CheckStatus: true, FirstOf: true,
	},
	{
		Name: "get_user_sig", Method: http.MethodPost, Path: "/getUserSig", Encoding: FormBody,
		Fields:      []Field{{Arg: "user_id"}},
		CheckStatus: true, Extract: extractUserSig,
	},
	{
		Name: "get_group_members", Method: http.MethodGet, Path: "/groups/members", Encoding: Query,
		Fields: []Field{{Arg: "group_id"}},
		Auth:   true, CheckStatus: true,
	},
	{
		Name: "fetch_seat_map", Method: http.MethodGet, Path: "/seat-arrangement", Encoding: Query,
		Fields: []Field{{Arg: "class_id"}},
	},
	{
		Name: "save_seat_map", Method: http.MethodPost, Path: "/seat-arrangement/save", Encoding: JSONBody,
		Fields: []Field{{Arg: "class_id"}, {Arg: "seats"}},
	},
	{
		Name: "save_teach_subjects", Method: http.MethodPost, Path: "/groups/member/teach-subjects", Encoding: JSONBody,
		Fields: []Field{{Arg: "group_id"}, {Arg: "user_id"}, {Arg: "teach_subjects"}},
	},
}

var routeIndex = func() map[string]Route {
	m := make(map[string]Route, len(routes))
	for _, r := range routes {
		m[r.Name] = r
	}
	return m
}()

// Lookup returns the route registered under name.
func Lookup(name string) (Route, bool) {
	r, ok := routeIndex[name]
	return r, ok
}

// Names lists every route in registration order.
func Names() []string {
	names := make([]string, len(routes))
	for i, r := range routes {
		names[i] = r.Name
	}
	return names
}
