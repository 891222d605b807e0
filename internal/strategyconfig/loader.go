package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML strategy file and returns Config with raw bytes
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, data, nil
}

// Parse decodes and validates YAML bytes
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// HashSpec hashes a single strategy definition together with the specs it references
func HashSpec(cfg *Config, name string) (string, error) {
	specs, err := closure(cfg, name)
	if err != nil {
		return "", err
	}
	jsonBytes, err := json.Marshal(specs)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// closure returns name and everything it transitively references, in visit order
func closure(cfg *Config, name string) ([]StrategySpec, error) {
	seen := map[string]bool{}
	var out []StrategySpec
	var visit func(string) error
	visit = func(n string) error {
		if seen[n] {
			return nil
		}
		spec, ok := cfg.Find(n)
		if !ok {
			return fmt.Errorf("strategy %q not defined", n)
		}
		seen[n] = true
		out = append(out, spec)
		for _, ref := range spec.References() {
			if err := visit(ref); err != nil {
				return err
			}
		}
		return nil
	}
	return out, visit(name)
}
