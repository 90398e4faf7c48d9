// Command agtool is a command-line client for a portal's content store. It
// maps folder/item paths onto the portal's ID addressing and performs
// filesystem-like operations on the remote hierarchy.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"agtool/internal/output"
	"agtool/internal/portal"
	"agtool/internal/prompt"
	"agtool/internal/resolve"
	"agtool/internal/session"
	"agtool/internal/settings"
	"agtool/internal/version"
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

type app struct {
	args    *Args
	store   *settings.Store
	client  *portal.Client
	session *session.Manager
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func run(argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	args, err := parseArgs(argv[1:])
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		fmt.Fprintln(stderr, usageRoot())
		return 2
	}
	if args.HasOption("help") {
		fmt.Fprintln(stdout, usageRoot())
		return 0
	}
	if args.HasOption("version") {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	settingsPath := args.Option("settings")
	if settingsPath == "" {
		settingsPath, err = settings.DefaultPath()
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
	}
	store, err := settings.Load(settingsPath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	portalURL := args.Option("portal")
	if portalURL == "" {
		portalURL = portal.DefaultBaseURL
	}
	client, err := portal.NewClient(portalURL, 30*time.Second)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if args.HasOption("debug") {
		client.EnableDebug(stderr)
	}

	a := &app{
		args:   args,
		store:  store,
		client: client,
		session: &session.Manager{
			Store:  store,
			Client: client,
			Creds:  &stdCreds{in: stdin, out: stderr},
		},
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	ctx := context.Background()
	cmd := ""
	if len(args.Parameters) > 0 {
		cmd = args.Parameters[0]
	}
	switch cmd {
	case "", "login":
		return a.cmdLogin(ctx)
	case "logout":
		return a.cmdLogout()
	case "ls":
		return a.cmdLs(ctx)
	case "cat":
		return a.cmdCat(ctx)
	case "info":
		return a.cmdInfo(ctx)
	case "mkdir":
		return a.cmdMkdir(ctx)
	case "rm":
		return a.cmdRm(ctx)
	case "rmdir":
		return a.cmdRmdir(ctx)
	case "update":
		return a.cmdUpdate(ctx)
	case "help":
		fmt.Fprintln(stdout, usageRoot())
		return 0
	case "version":
		fmt.Fprintln(stdout, version.String())
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", cmd)
		fmt.Fprintln(stderr, usageRoot())
		return 2
	}
}

// stdCreds prompts on the process's real streams.
type stdCreds struct {
	in  io.Reader
	out io.Writer
}

func (c *stdCreds) ReadLine(p string) (string, error) {
	return prompt.ReadLine(c.in, c.out, p)
}

func (c *stdCreds) ReadPassword(p string) (string, error) {
	return prompt.ReadPassword(c.out, p, c.in)
}

func (a *app) sessionOpts() session.Options {
	return session.Options{
		Username: a.args.Option("username"),
		Password: a.args.Option("password"),
		Save:     a.args.HasOption("save"),
		Forget:   a.args.HasOption("forget"),
	}
}

// ensureToken obtains a valid token or renders the failure: error-shaped
// portal responses verbatim, everything else as a plain message.
func (a *app) ensureToken(ctx context.Context) (string, bool) {
	token, err := a.session.EnsureToken(ctx, a.sessionOpts())
	if err == nil {
		return token, true
	}
	var apiErr *portal.APIError
	switch {
	case errors.As(err, &apiErr):
		_ = a.writeObj(apiErr.Raw)
		fmt.Fprintln(a.stderr, "Not logged in.")
	case errors.Is(err, session.ErrNotLoggedIn):
		fmt.Fprintln(a.stderr, "Not logged in.")
	default:
		fmt.Fprintln(a.stderr, "error:", err)
	}
	return "", false
}

func (a *app) resolver(token string) *resolve.Resolver {
	return &resolve.Resolver{Lister: &userLister{
		client:   a.client,
		username: a.store.DefaultUsername(),
		token:    token,
	}}
}

// userLister scopes portal content listings to the active user and token.
type userLister struct {
	client   *portal.Client
	username string
	token    string
}

func (l *userLister) ListContent(ctx context.Context, folderID string) (portal.ContentListing, error) {
	return l.client.ListContent(ctx, l.username, folderID, l.token)
}

// requirePath fetches the positional path or complains the way the tool
// always has.
func (a *app) requirePath(cmd string) (string, bool) {
	path, ok := a.args.Path()
	if !ok {
		fmt.Fprintf(a.stderr, "%s what?\n", cmd)
		return "", false
	}
	return path, true
}

// writeObj pretty-prints a raw JSON response to stdout or the --out file.
func (a *app) writeObj(raw []byte) error {
	w := a.stdout
	if out := a.args.Option("out"); out != "" {
		f, err := os.OpenFile(out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return output.WriteRawJSON(w, raw)
}

func (a *app) printErr(err error) int {
	var apiErr *portal.APIError
	if errors.As(err, &apiErr) {
		_ = a.writeObj(apiErr.Raw)
		return 1
	}
	fmt.Fprintln(a.stderr, "error:", err)
	return 1
}

func (a *app) cmdLogin(ctx context.Context) int {
	if err := a.session.Login(ctx, a.sessionOpts()); err != nil {
		return a.printErr(err)
	}
	username := a.store.DefaultUsername()
	validity := a.session.TokenValidity(username)
	if validity <= 0 {
		return 1
	}
	fmt.Fprintf(a.stdout, "Current token valid for %s\n", output.ElapsedString(validity))
	return 0
}

func (a *app) cmdLogout() int {
	if err := a.session.Logout(a.sessionOpts()); err != nil {
		return a.printErr(err)
	}
	return 0
}

func (a *app) cmdLs(ctx context.Context) int {
	token, ok := a.ensureToken(ctx)
	if !ok {
		return 1
	}
	folderID := ""
	if path, hasPath := a.args.Path(); hasPath {
		folder, err := a.resolver(token).ResolveFolder(ctx, path)
		if err != nil {
			return a.printErr(err)
		}
		if folder.Title != "" && folder.ID == "" {
			fmt.Fprintf(a.stderr, "ls: %s: No such folder.\n", folder.Title)
			return 1
		}
		folderID = folder.ID
	}
	listing, err := a.client.ListContent(ctx, a.store.DefaultUsername(), folderID, token)
	if err != nil {
		return a.printErr(err)
	}
	if err := output.PrintListing(a.stdout, listing); err != nil {
		return a.printErr(err)
	}
	return 0
}

// resolveItemArg resolves the path argument for an item command, rendering
// the distinct folder/item failures. requireItem makes a missing item fatal.
func (a *app) resolveItemArg(ctx context.Context, cmd, path, token string, requireItem bool) (resolve.ItemRef, bool) {
	ref, err := a.resolver(token).ResolveItem(ctx, path)
	if err != nil {
		var notFound *resolve.NotFoundError
		if errors.As(err, &notFound) {
			fmt.Fprintf(a.stderr, "%s: %s\n", cmd, notFound.Error())
		} else {
			a.printErr(err)
		}
		return ref, false
	}
	if requireItem && ref.ItemID == "" {
		fmt.Fprintf(a.stderr, "%s: %s: No such item.\n", cmd, ref.Path)
		return ref, false
	}
	return ref, true
}

func (a *app) cmdCat(ctx context.Context) int {
	path, ok := a.requirePath("cat")
	if !ok {
		return 2
	}
	token, ok := a.ensureToken(ctx)
	if !ok {
		return 1
	}
	ref, ok := a.resolveItemArg(ctx, "cat", path, token, true)
	if !ok {
		return 1
	}
	data, err := a.client.ItemData(ctx, ref.ItemID, token)
	if err != nil {
		return a.printErr(err)
	}
	defer data.Close()
	w := a.stdout
	if out := a.args.Option("out"); out != "" {
		f, err := os.OpenFile(out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
		if err != nil {
			return a.printErr(err)
		}
		defer f.Close()
		w = f
	}
	if _, err := io.Copy(w, data); err != nil {
		return a.printErr(err)
	}
	return 0
}

func (a *app) cmdInfo(ctx context.Context) int {
	path, ok := a.requirePath("info")
	if !ok {
		return 2
	}
	token, ok := a.ensureToken(ctx)
	if !ok {
		return 1
	}
	ref, ok := a.resolveItemArg(ctx, "info", path, token, true)
	if !ok {
		return 1
	}
	raw, err := a.client.ItemInfo(ctx, ref.ItemID, token)
	if err != nil {
		return a.printErr(err)
	}
	if err := a.writeObj(raw); err != nil {
		return a.printErr(err)
	}
	return 0
}

func (a *app) cmdMkdir(ctx context.Context) int {
	path, ok := a.requirePath("mkdir")
	if !ok {
		return 2
	}
	token, ok := a.ensureToken(ctx)
	if !ok {
		return 1
	}
	folder, err := a.resolver(token).ResolveFolder(ctx, path)
	if err != nil {
		return a.printErr(err)
	}
	if folder.ID != "" {
		fmt.Fprintf(a.stderr, "mkdir: %s: Cannot create directory. It already exists.\n", folder.Title)
		return 1
	}
	raw, err := a.client.CreateFolder(ctx, a.store.DefaultUsername(), folder.Title, token)
	if err != nil {
		return a.printErr(err)
	}
	if err := a.writeObj(raw); err != nil {
		return a.printErr(err)
	}
	return 0
}

func (a *app) cmdRm(ctx context.Context) int {
	path, ok := a.requirePath("rm")
	if !ok {
		return 2
	}
	token, ok := a.ensureToken(ctx)
	if !ok {
		return 1
	}
	ref, ok := a.resolveItemArg(ctx, "rm", path, token, true)
	if !ok {
		return 1
	}
	raw, err := a.client.DeleteItem(ctx, a.store.DefaultUsername(), ref.FolderID, ref.ItemID, token)
	if err != nil {
		return a.printErr(err)
	}
	if err := a.writeObj(raw); err != nil {
		return a.printErr(err)
	}
	return 0
}

func (a *app) cmdRmdir(ctx context.Context) int {
	path, ok := a.requirePath("rmdir")
	if !ok {
		return 2
	}
	token, ok := a.ensureToken(ctx)
	if !ok {
		return 1
	}
	folder, err := a.resolver(token).ResolveFolder(ctx, path)
	if err != nil {
		return a.printErr(err)
	}
	if folder.ID == "" {
		fmt.Fprintf(a.stderr, "rmdir: %s: No such folder.\n", folder.Title)
		return 1
	}
	raw, err := a.client.DeleteFolder(ctx, a.store.DefaultUsername(), folder.ID, token)
	if err != nil {
		return a.printErr(err)
	}
	if err := a.writeObj(raw); err != nil {
		return a.printErr(err)
	}
	return 0
}

func (a *app) cmdUpdate(ctx context.Context) int {
	path, ok := a.requirePath("update")
	if !ok {
		return 2
	}
	token, ok := a.ensureToken(ctx)
	if !ok {
		return 1
	}
	ref, ok := a.resolveItemArg(ctx, "update", path, token, false)
	if !ok {
		return 1
	}
	files, closeFiles, err := a.buildUploads(ref.ItemTitle)
	if err != nil {
		return a.printErr(err)
	}
	defer closeFiles()

	username := a.store.DefaultUsername()
	var raw []byte
	if ref.ItemID == "" {
		fields := map[string]string{
			"type":  "Code Sample",
			"title": ref.ItemTitle,
			"tags":  "code, sample",
		}
		for k, v := range a.args.passthroughFields() {
			fields[k] = v
		}
		raw, err = a.client.AddItem(ctx, username, ref.FolderID, token, fields, files)
	} else {
		raw, err = a.client.UpdateItem(ctx, username, ref.FolderID, ref.ItemID, token, a.args.passthroughFields(), files)
	}
	if err != nil {
		return a.printErr(err)
	}
	if err := a.writeObj(raw); err != nil {
		return a.printErr(err)
	}
	return 0
}

func usageRoot() string {
	return `Usage:
  agtool <command> [path] [options]

Commands:
  ls [path]       List folders and items
  cat <path>      Write raw item data to stdout
  info <path>     Show item metadata
  login           Obtain or refresh the session token
  logout          Discard the cached token and password
  mkdir <path>    Create a folder
  rm <path>       Delete an item
  rmdir <path>    Delete a folder
  update <path>   Create or update an item

A path is [folder/]item and may be prefixed user: to switch accounts.
Running agtool with no command behaves like login.

Options:
  --username <name>    Act as this user and make it the default
  --password <value>   Password for login (prompted when omitted)
  --save               Store the password in the settings file
  --forget             Remove the stored password
  --out <path>         Write command output to a file
  --file <path>        Upload source for update ('-' reads stdin)
  --thumbnail <path>   Thumbnail upload for update
  --settings <path>    Settings file (default under the user config dir)
  --portal <url>       Portal base URL (default ` + portal.DefaultBaseURL + `)
  --debug              Log HTTP requests to stderr
  --help               Show help
  --version            Show version

Any other --key value option is forwarded to the portal on update.`
}
