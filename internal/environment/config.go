package environment

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	EnvLocal = "local"
	EnvProd  = "production"
)

// Config is built once at startup and handed to every component.
type Config struct {
	Env       string    `toml:"env"`
	LibsDir   string    `toml:"libs_dir"`
	Toolchain Toolchain `toml:"toolchain"`
	Backend   Backend   `toml:"backend"`
	Tracker   Tracker   `toml:"tracker"`
	Repos     Repos     `toml:"repos"`
	Events    Events    `toml:"events"`
}

// Toolchain describes how submissions are compiled and how their tests are run.
type Toolchain struct {
	Compiler     string   `toml:"compiler"`
	Runner       string   `toml:"runner"`
	RunnerMain   string   `toml:"runner_main"`
	SourceExt    string   `toml:"source_ext"`
	ClassPathSep string   `toml:"class_path_sep"`
	Libraries    []string `toml:"libraries"`
}

// BackendModel is one grading backend application served by the same interpreter.
type BackendModel struct {
	Module    string `toml:"module"`
	GradePath string `toml:"grade_path"`
}

type Backend struct {
	Root            string                  `toml:"root"`
	Python          string                  `toml:"python"`
	BaseURL         string                  `toml:"base_url"`
	HealthPath      string                  `toml:"health_path"`
	ReadyAttempts   int                     `toml:"ready_attempts"`
	ReadyIntervalMs int                     `toml:"ready_interval_ms"`
	Models          map[string]BackendModel `toml:"models"`
}

type Tracker struct {
	BaseURL   string `toml:"base_url"`
	Org       string `toml:"org"`
	Token     string `toml:"-"`
	UserAgent string `toml:"user_agent"`
}

type Repos struct {
	CloneBase       string   `toml:"clone_base"`
	SolutionsBase   string   `toml:"solutions_base"`
	SolutionsBranch string   `toml:"solutions_branch"`
	SolutionTasks   []string `toml:"solution_tasks"`
}

// Events configures optional progress publishers. Empty values disable them.
type Events struct {
	NatsURL     string `toml:"nats_url"`
	NatsSubject string `toml:"nats_subject"`
	SqsQueueURL string `toml:"sqs_queue_url"`
	AwsRegion   string `toml:"aws_region"`
}

func Default() *Config {
	tasks := make([]string, 0, 19)
	for i := 1; i <= 18; i++ {
		tasks = append(tasks, "task-"+strconv.Itoa(i))
	}
	tasks = append(tasks, "quicksort")

	return &Config{
		Env: EnvLocal,
		Toolchain: Toolchain{
			Compiler:     "javac",
			Runner:       "java",
			RunnerMain:   "org.junit.runner.JUnitCore",
			SourceExt:    ".java",
			ClassPathSep: ":",
			Libraries:    []string{"junit-4.12.jar", "hamcrest-core-1.3.jar"},
		},
		Backend: Backend{
			Python:          "AI_api/venv/bin/python",
			BaseURL:         "http://127.0.0.1:8000",
			HealthPath:      "/docs",
			ReadyAttempts:   30,
			ReadyIntervalMs: 1000,
			Models: map[string]BackendModel{
				"openai": {Module: "AI_api.gptAPI:app", GradePath: "/imagi_gpt"},
				"gemini": {Module: "AI_api.geminiAPI:app", GradePath: "/imagi_gemini"},
			},
		},
		Tracker: Tracker{
			BaseURL:   "https://gits-15.sys.kth.se/api/v3",
			Org:       "inda-25",
			UserAgent: "AI-Grader",
		},
		Repos: Repos{
			CloneBase:       "git@gits-15.sys.kth.se:inda-25/",
			SolutionsBase:   "git@gits-15.sys.kth.se:inda-master/",
			SolutionsBranch: "solutions",
			SolutionTasks:   tasks,
		},
		Events: Events{
			NatsSubject: "grader.events",
			AwsRegion:   "eu-central-1",
		},
	}
}

// LookupFunc resolves one configuration variable.
type LookupFunc func(key string) (string, bool)

// DotEnvLookup layers the process environment over the given .env files.
// Missing .env files are ignored; the process environment is not modified.
func DotEnvLookup(files ...string) (LookupFunc, error) {
	vars := make(map[string]string)
	for _, f := range files {
		m, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", f, err)
		}
		for k, v := range m {
			vars[k] = v
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}, nil
}

// Load reads the defaults, the TOML file at path and then the variables from lookup.
// A missing file is an error only when required is set.
func Load(path string, required bool, lookup LookupFunc) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if lookup != nil {
		if err := applyEnv(cfg, lookup); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup LookupFunc) error {
	strs := map[string]*string{
		"GRADER_ENV":            &cfg.Env,
		"GRADER_LIBS_DIR":       &cfg.LibsDir,
		"GRADER_BACKEND_ROOT":   &cfg.Backend.Root,
		"GRADER_BACKEND_URL":    &cfg.Backend.BaseURL,
		"GRADER_TRACKER_TOKEN":  &cfg.Tracker.Token,
		"GRADER_TRACKER_URL":    &cfg.Tracker.BaseURL,
		"GRADER_TRACKER_ORG":    &cfg.Tracker.Org,
		"GRADER_CLONE_BASE":     &cfg.Repos.CloneBase,
		"GRADER_SOLUTIONS_BASE": &cfg.Repos.SolutionsBase,
		"GRADER_NATS_URL":       &cfg.Events.NatsURL,
		"GRADER_NATS_SUBJECT":   &cfg.Events.NatsSubject,
		"GRADER_SQS_URL":        &cfg.Events.SqsQueueURL,
		"GRADER_AWS_REGION":     &cfg.Events.AwsRegion,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("GRADER_BACKEND_READY_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("GRADER_BACKEND_READY_ATTEMPTS must be a positive integer, got %q", v)
		}
		cfg.Backend.ReadyAttempts = n
	}
	return nil
}

// MissingError names a configuration variable a command cannot run without.
type MissingError struct {
	Key     string
	Purpose string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s is not set: %s", e.Key, e.Purpose)
}

func (c *Config) RequireLibsDir() error {
	if c.LibsDir == "" {
		return &MissingError{Key: "GRADER_LIBS_DIR", Purpose: "directory containing the test library archives"}
	}
	return requireDir("GRADER_LIBS_DIR", c.LibsDir)
}

func (c *Config) RequireBackendRoot() error {
	if c.Backend.Root == "" {
		return &MissingError{Key: "GRADER_BACKEND_ROOT", Purpose: "directory containing the grading backend application"}
	}
	return requireDir("GRADER_BACKEND_ROOT", c.Backend.Root)
}

func (c *Config) RequireTrackerToken() error {
	if c.Tracker.Token == "" {
		return &MissingError{Key: "GRADER_TRACKER_TOKEN", Purpose: "credential for the issue tracker"}
	}
	return nil
}

func requireDir(key string, path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s=%s: %w", key, path, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("%s=%s is not a directory", key, path)
	}
	return nil
}
