package main

import (
	"fmt"
	"strings"
)

// Args is the flat option/positional split of a command line. Options are
// --key value pairs except for the unary flags, which take no value.
type Args struct {
	Parameters []string
	Options    map[string]string
}

func (a *Args) Option(key string) string  { return a.Options[key] }
func (a *Args) HasOption(key string) bool { _, ok := a.Options[key]; return ok }

// Path returns the positional path argument, if any.
func (a *Args) Path() (string, bool) {
	if len(a.Parameters) < 2 {
		return "", false
	}
	return a.Parameters[1], true
}

func unaryOption(key string) bool {
	switch key {
	case "save", "forget", "debug", "help", "version":
		return true
	}
	return false
}

// reservedOption reports options consumed locally; everything else is
// forwarded verbatim to the portal on mutating commands.
func reservedOption(key string) bool {
	switch key {
	case "username", "password", "save", "forget", "out", "file",
		"thumbnail", "settings", "portal", "debug", "help", "version":
		return true
	}
	return false
}

// parseArgs splits argv (without the program name) into positional
// parameters and options. Unknown --key options must carry a value; a
// username: prefix on the path parameter becomes a username override.
func parseArgs(argv []string) (*Args, error) {
	args := &Args{Options: map[string]string{}}
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		if !strings.HasPrefix(arg, "--") {
			args.Parameters = append(args.Parameters, arg)
			continue
		}
		key := arg[2:]
		if key == "" {
			return nil, fmt.Errorf("empty option name")
		}
		if unaryOption(key) {
			args.Options[key] = "true"
			continue
		}
		i++
		if i >= len(argv) {
			return nil, fmt.Errorf("option --%s requires a value", key)
		}
		args.Options[key] = argv[i]
	}
	if path, ok := args.Path(); ok {
		if user, rest, found := cutUserPrefix(path); found {
			args.Options["username"] = user
			args.Parameters[1] = rest
		}
	}
	return args, nil
}

// cutUserPrefix cracks "user:path" into its parts.
func cutUserPrefix(path string) (user, rest string, found bool) {
	i := strings.Index(path, ":")
	if i <= 0 {
		return "", path, false
	}
	return path[:i], path[i+1:], true
}

// passthroughFields collects the non-reserved options, which ride along as
// extra portal request fields.
func (a *Args) passthroughFields() map[string]string {
	fields := map[string]string{}
	for k, v := range a.Options {
		if !reservedOption(k) {
			fields[k] = v
		}
	}
	return fields
}
