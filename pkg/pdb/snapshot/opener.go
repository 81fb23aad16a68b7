package snapshot

import (
	"bytes"
	"flag"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/grafana/pdbsym/pkg/pdb"
	"github.com/grafana/pdbsym/pkg/util"
)

const defaultMaxSize = 1 << 30

// jsonDumpConfig rejects unknown fields like the YAML decoder does.
var jsonDumpConfig = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

type Config struct {
	// MaxSize bounds the decompressed size of a dump.
	MaxSize int64 `yaml:"max_size" category:"advanced"`
}

func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	f.Int64Var(&cfg.MaxSize, "snapshot.max-size", defaultMaxSize, "Maximum decompressed size of a database dump in bytes.")
}

func (cfg *Config) Validate() error {
	if cfg.MaxSize < 0 {
		return fmt.Errorf("invalid snapshot max-size value, must not be negative")
	}
	return nil
}

// Opener implements pdb.Opener for dumps stored on fs.
type Opener struct {
	fs     afero.Fs
	cfg    Config
	logger log.Logger
}

func NewOpener(logger log.Logger, fs afero.Fs, cfg Config) (*Opener, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = defaultMaxSize
	}
	if logger == nil {
		logger = util.Logger
	}
	return &Opener{fs: fs, cfg: cfg, logger: logger}, nil
}

func (o *Opener) Open(path string) (pdb.Database, error) {
	f, err := o.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := readLimited(f, o.cfg.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	compressedSize := len(data)
	data, err = decompress(data, o.cfg.MaxSize)
	if err != nil {
		return nil, &pdb.ValidationError{Reason: pdb.InvalidSuperBlock, Detail: err.Error()}
	}

	file, err := Decode(data)
	if err != nil {
		return nil, &pdb.ValidationError{Reason: pdb.InvalidSuperBlock, Detail: err.Error()}
	}
	if err = file.Validate(); err != nil {
		return nil, err
	}

	level.Debug(o.logger).Log(
		"msg", "opened database dump",
		"path", path,
		"size", humanize.IBytes(uint64(len(data))),
		"compressed_size", humanize.IBytes(uint64(compressedSize)),
		"modules", len(file.Modules),
	)
	return &database{file: file}, nil
}

// Decode parses a JSON or YAML dump.
func Decode(data []byte) (*File, error) {
	var file File
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := jsonDumpConfig.Unmarshal(trimmed, &file); err != nil {
			return nil, fmt.Errorf("decode json dump: %w", err)
		}
		return &file, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty dump")
		}
		return nil, fmt.Errorf("decode yaml dump: %w", err)
	}
	return &file, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("dump exceeds %s", humanize.IBytes(uint64(limit)))
	}
	return data, nil
}

// decompress inflates gzip or zstd data, detected by magic bytes. Other data
// is returned as is.
func decompress(data []byte, limit int64) ([]byte, error) {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer r.Close()

		decompressed, err := readLimited(r, limit)
		if err != nil {
			return nil, fmt.Errorf("decompress gzip data: %w", err)
		}
		return decompressed, nil
	}

	// zstd magic bytes: 0x28, 0xb5, 0x2f, 0xfd
	if len(data) >= 4 && data[0] == 0x28 && data[1] == 0xb5 && data[2] == 0x2f && data[3] == 0xfd {
		r, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}
		defer r.Close()

		decompressed, err := readLimited(r, limit)
		if err != nil {
			return nil, fmt.Errorf("decompress zstd data: %w", err)
		}
		return decompressed, nil
	}

	return data, nil
}
