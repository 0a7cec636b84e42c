package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/sanity-io/litter"
	"nyiyui.ca/hato/senro/config"
	"nyiyui.ca/hato/senro/kujo"
	"nyiyui.ca/hato/senro/layout"
	"nyiyui.ca/hato/senro/parser"
	"nyiyui.ca/hato/senro/store"
)

var configPath string
var mode string
var trackPath string
var trackID string
var dump bool

func main() {
	flag.StringVar(&configPath, "config", "", "path to JSON config (defaults are used if empty)")
	flag.StringVar(&mode, "mode", "check", "one of check, section, locate, save, load, serve")
	flag.StringVar(&trackPath, "track", "-", "path to track text (- for stdin)")
	flag.StringVar(&trackID, "id", "", "track UUID for save and load")
	flag.BoolVar(&dump, "dump", false, "dump parsed values")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `usage: %s [flags] [args]
modes:
  check                                  parse -track and print it
  section <length> <id1> <id2> <branch1> <branch2>
                                         make a single section and print it
  locate <id> <branch> <offset> <id> <branch> <offset>
                                         check if two locations on -track are the same
  save                                   store -track under -id
  load                                   print the track stored under -id
  serve                                  serve stored tracks over HTTP
flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	litter.Config.HidePrivateFields = false

	err := main2(flag.Args())
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

func main2(args []string) error {
	switch mode {
	case "check":
		t, err := readTrack()
		if err != nil {
			return err
		}
		fmt.Println(t)
		return nil
	case "section":
		return makeSection(args)
	case "locate":
		return locate(args)
	case "save", "load", "serve":
		conf, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		policy, err := store.ParseSyncPolicy(conf.SyncPolicy)
		if err != nil {
			return err
		}
		st, err := store.Open(conf.DBPath, policy)
		if err != nil {
			return err
		}
		defer st.Close()
		switch mode {
		case "save":
			return save(st)
		case "load":
			return load(st)
		default:
			s := kujo.NewServer(st, conf)
			defer s.Close()
			return s.ListenAndServe(conf.ListenAddr)
		}
	default:
		flag.Usage()
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func readTrack() (*layout.Track, error) {
	var r io.Reader
	if trackPath == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(trackPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	t, err := parser.New(r).ParseTrack()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", trackPath, err)
	}
	if dump {
		litter.Dump(t.Sections())
	}
	return t, nil
}

func makeSection(args []string) error {
	if len(args) != 5 {
		return errors.New("section: need exactly 5 arguments: length id1 id2 branch1 branch2")
	}
	length, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("length: %w", err)
	}
	a, err := endpoint(args[1], args[3])
	if err != nil {
		return fmt.Errorf("endpoint 1: %w", err)
	}
	b, err := endpoint(args[2], args[4])
	if err != nil {
		return fmt.Errorf("endpoint 2: %w", err)
	}
	s, err := layout.NewSection(length, a, b)
	if err != nil {
		return err
	}
	if s.IsLoop() {
		log.Print("loop section")
	}
	if dump {
		litter.Dump(s)
	}
	fmt.Println(s)
	return nil
}

// endpoint reads branch the same way the track text does (case-sensitive).
func endpoint(id, branch string) (layout.JunctionEndpoint, error) {
	b, err := layout.ParseBranch(branch)
	if err != nil {
		return layout.JunctionEndpoint{}, err
	}
	return layout.NewEndpoint(layout.NewJunction(id), b)
}

// location finds the section at junction id on branch, and returns the location offset from that end.
func location(t *layout.Track, id, branch, offset string) (layout.Location, error) {
	e, err := endpoint(id, branch)
	if err != nil {
		return layout.Location{}, err
	}
	s, ok := t.SectionAt(e.Junction(), e.Branch())
	if !ok {
		return layout.Location{}, fmt.Errorf("no section at %s", e)
	}
	o, err := strconv.Atoi(offset)
	if err != nil {
		return layout.Location{}, fmt.Errorf("offset: %w", err)
	}
	return layout.NewLocation(s, e, o)
}

func locate(args []string) error {
	if len(args) != 6 {
		return errors.New("locate: need exactly 6 arguments: id branch offset id branch offset")
	}
	t, err := readTrack()
	if err != nil {
		return err
	}
	l1, err := location(t, args[0], args[1], args[2])
	if err != nil {
		return fmt.Errorf("location 1: %w", err)
	}
	l2, err := location(t, args[3], args[4], args[5])
	if err != nil {
		return fmt.Errorf("location 2: %w", err)
	}
	if dump {
		litter.Dump(l1, l2)
	}
	if l1.Equivalent(l2) {
		fmt.Printf("%s = %s\n", l1, l2)
	} else {
		fmt.Printf("%s ≠ %s\n", l1, l2)
	}
	return nil
}

func parseID(generate bool) (uuid.UUID, error) {
	if trackID == "" && generate {
		id := uuid.New()
		log.Printf("using new id %s", id)
		return id, nil
	}
	id, err := uuid.Parse(trackID)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("id %q is not a valid UUID: %w", trackID, err)
	}
	return id, nil
}

func save(st *store.Store) error {
	id, err := parseID(true)
	if err != nil {
		return err
	}
	t, err := readTrack()
	if err != nil {
		return err
	}
	err = st.Save(id, t)
	if err != nil {
		return err
	}
	log.Printf("saved %d sections as %s", t.Len(), id)
	return nil
}

func load(st *store.Store) error {
	id, err := parseID(false)
	if err != nil {
		return err
	}
	t, err := st.Load(id)
	if err != nil {
		return err
	}
	if dump {
		litter.Dump(t.Sections())
	}
	fmt.Println(t)
	return nil
}
