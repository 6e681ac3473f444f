package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/assemble-interior/assemble-go/pkg/client"
	"github.com/assemble-interior/assemble-go/pkg/session"
)

const usage = `assemblectl <command> [flags]

Commands:
  login        -u <id> -p <password>
  logout
  whoami
  register     -u <id> -p <password> [-email <email>]
  projects     [-user <id>]
  create       -title <t> [-user <id>] [-image <path>] [-style <s>] [-space <s>]
               [-residence <r>] [-budget <b>] [-family <f>] [-prompt <p>] [-n <variations>]
  images       -project <id>
  refine       -project <id> -image <id> -prompt <text>
  stats        [-user <id>]
  set-status   -project <id> -status <pending|in_progress|completed>
  pending      [-status <pending|approved|rejected>]
  approve      -id <pending_id>
  reject       -id <pending_id> [-reason <text>]
  drop-request -id <pending_id>
  users
  delete-user  -u <id>
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	api := client.New(client.ResolveBaseURL(), nil)
	store := session.NewStore(api, session.NewFileStorage(sessionPath()), nil)
	store.Restore()

	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "login":
		err = cmdLogin(ctx, store, os.Args[2:])
	case "logout":
		store.Logout()
		fmt.Println("logged out")
	case "whoami":
		err = cmdWhoami(store)
	case "register":
		err = cmdRegister(ctx, store, os.Args[2:])
	case "projects":
		err = cmdProjects(ctx, api, store, os.Args[2:])
	case "create":
		err = cmdCreate(ctx, api, store, os.Args[2:])
	case "images":
		err = cmdImages(ctx, api, os.Args[2:])
	case "refine":
		err = cmdRefine(ctx, api, os.Args[2:])
	case "stats":
		err = cmdStats(ctx, api, store, os.Args[2:])
	case "set-status":
		err = cmdSetStatus(ctx, api, os.Args[2:])
	case "pending":
		err = cmdPending(ctx, store, os.Args[2:])
	case "approve":
		err = cmdApprove(ctx, store, os.Args[2:])
	case "reject":
		err = cmdReject(ctx, store, os.Args[2:])
	case "drop-request":
		err = cmdDropRequest(ctx, store, os.Args[2:])
	case "users":
		err = cmdUsers(ctx, store)
	case "delete-user":
		err = cmdDeleteUser(ctx, store, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func sessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".assemble-session.json"
	}
	return filepath.Join(home, ".assemble", "session.json")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// currentUser resolves the acting user id: the -user flag if given, otherwise
// the stored session.
func currentUser(store *session.Store, flagUser string) (string, error) {
	if flagUser != "" {
		return flagUser, nil
	}
	sess, ok := store.Current()
	if !ok {
		return "", fmt.Errorf("not logged in (use login or pass -user)")
	}
	return sess.UserID, nil
}

func cmdLogin(ctx context.Context, store *session.Store, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	userID := fs.String("u", "", "user id")
	password := fs.String("p", "", "password")
	fs.Parse(args)

	res := store.Login(ctx, *userID, *password)
	if !res.Success {
		return fmt.Errorf("login failed (%s)", res.Reason)
	}
	fmt.Printf("logged in as %s (%s)\n", res.Session.UserID, res.Session.Role)
	return nil
}

func cmdWhoami(store *session.Store) error {
	sess, ok := store.Current()
	if !ok {
		fmt.Println("not logged in")
		return nil
	}
	return printJSON(sess)
}

func cmdRegister(ctx context.Context, store *session.Store, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	userID := fs.String("u", "", "user id")
	password := fs.String("p", "", "password")
	email := fs.String("email", "", "email")
	fs.Parse(args)

	res := store.Register(ctx, *userID, *email, *password)
	if !res.Success {
		return fmt.Errorf("registration failed (%s)", res.Reason)
	}
	fmt.Println("registration submitted; awaiting admin approval")
	return nil
}

func cmdProjects(ctx context.Context, api *client.Client, store *session.Store, args []string) error {
	fs := flag.NewFlagSet("projects", flag.ExitOnError)
	user := fs.String("user", "", "owner user id")
	fs.Parse(args)

	userID, err := currentUser(store, *user)
	if err != nil {
		return err
	}

	projects, err := api.Projects(ctx, userID)
	if err != nil {
		return err
	}
	return printJSON(projects)
}

func cmdCreate(ctx context.Context, api *client.Client, store *session.Store, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	user := fs.String("user", "", "owner user id")
	title := fs.String("title", "", "project title")
	imagePath := fs.String("image", "", "source image path")
	style := fs.String("style", "", "design style")
	space := fs.String("space", "", "space type")
	residence := fs.String("residence", "", "residence type")
	budget := fs.String("budget", "", "budget range")
	family := fs.String("family", "", "family type")
	prompt := fs.String("prompt", "", "extra refinement prompt")
	variations := fs.Int("n", 1, "image variations")
	fs.Parse(args)

	userID, err := currentUser(store, *user)
	if err != nil {
		return err
	}

	in := client.CreateProjectInput{
		UserID:           userID,
		Title:            *title,
		DesignStyle:      *style,
		SpaceType:        *space,
		ResidenceType:    *residence,
		BudgetRange:      *budget,
		FamilyType:       *family,
		RefinementPrompt: *prompt,
		Variations:       *variations,
	}

	if *imagePath != "" {
		f, err := os.Open(*imagePath)
		if err != nil {
			return err
		}
		defer f.Close()
		in.Image = f
		in.ImageFilename = filepath.Base(*imagePath)
	}

	result, err := api.CreateProject(ctx, in)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func cmdImages(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("images", flag.ExitOnError)
	projectID := fs.Int64("project", 0, "project id")
	fs.Parse(args)

	images, err := api.ProjectImages(ctx, *projectID)
	if err != nil {
		return err
	}
	return printJSON(images)
}

func cmdRefine(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("refine", flag.ExitOnError)
	projectID := fs.Int64("project", 0, "project id")
	imageID := fs.Int64("image", 0, "image id")
	prompt := fs.String("prompt", "", "refinement instruction")
	fs.Parse(args)

	result, err := api.RefineImage(ctx, *projectID, *imageID, *prompt)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func cmdStats(ctx context.Context, api *client.Client, store *session.Store, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	user := fs.String("user", "", "owner user id")
	fs.Parse(args)

	userID, err := currentUser(store, *user)
	if err != nil {
		return err
	}
	return printJSON(api.Stats(ctx, userID))
}

func cmdSetStatus(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("set-status", flag.ExitOnError)
	projectID := fs.Int64("project", 0, "project id")
	status := fs.String("status", "", "new status")
	fs.Parse(args)

	project, err := api.UpdateProjectStatus(ctx, *projectID, client.NormalizeStatus(*status))
	if err != nil {
		return err
	}
	return printJSON(project)
}

func cmdPending(ctx context.Context, store *session.Store, args []string) error {
	fs := flag.NewFlagSet("pending", flag.ExitOnError)
	status := fs.String("status", "", "status filter")
	fs.Parse(args)

	items, err := store.FetchPendingUsers(ctx, *status)
	if err != nil {
		return err
	}
	return printJSON(items)
}

func cmdApprove(ctx context.Context, store *session.Store, args []string) error {
	fs := flag.NewFlagSet("approve", flag.ExitOnError)
	id := fs.Int64("id", 0, "pending request id")
	fs.Parse(args)

	if err := store.ApprovePendingUser(ctx, *id); err != nil {
		return err
	}
	fmt.Println("approved")
	return nil
}

func cmdReject(ctx context.Context, store *session.Store, args []string) error {
	fs := flag.NewFlagSet("reject", flag.ExitOnError)
	id := fs.Int64("id", 0, "pending request id")
	reason := fs.String("reason", "", "rejection reason")
	fs.Parse(args)

	if err := store.RejectPendingUser(ctx, *id, *reason); err != nil {
		return err
	}
	fmt.Println("rejected")
	return nil
}

func cmdDropRequest(ctx context.Context, store *session.Store, args []string) error {
	fs := flag.NewFlagSet("drop-request", flag.ExitOnError)
	id := fs.Int64("id", 0, "pending request id")
	fs.Parse(args)

	if err := store.DeletePendingRequest(ctx, *id); err != nil {
		return err
	}
	fmt.Println("deleted")
	return nil
}

func cmdUsers(ctx context.Context, store *session.Store) error {
	users, err := store.FetchAllUsers(ctx)
	if err != nil {
		return err
	}
	return printJSON(users)
}

func cmdDeleteUser(ctx context.Context, store *session.Store, args []string) error {
	fs := flag.NewFlagSet("delete-user", flag.ExitOnError)
	userID := fs.String("u", "", "target user id")
	fs.Parse(args)

	if err := store.DeleteUserAccount(ctx, *userID); err != nil {
		return err
	}
	fmt.Println("user deleted")
	return nil
}
