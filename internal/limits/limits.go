// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package limits holds the compile-time DoS-prevention constants that every
// pass of the compiler and the execution engine are bounded by: max file
// size, max tokens, max parse depth, max symbols, max cycle length, and so
// on (spec.md §5, §9). Defaults live here as Go constants; a deployment can
// overlay a stricter (never looser) profile from TOML using Load, the same
// defaults-then-overlay shape the teacher's internal/config package uses.
package limits

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Profile is the full set of tunable bounds. Every field has an absolute
// ceiling enforced by Validate; a production profile is expected to be
// stricter than the ceiling, never looser.
type Profile struct {
	MaxFileSize          int64 `toml:"max_file_size"`
	MaxTokenCount         int   `toml:"max_token_count"`
	MaxIdentifierLength   int   `toml:"max_identifier_length"`
	MaxStringSize         int   `toml:"max_string_size"`
	MaxCommentLength      int   `toml:"max_comment_length"`
	MaxStringNestingDepth int   `toml:"max_string_nesting_depth"`

	MaxParseDepth          int `toml:"max_parse_depth"`
	MaxLookaheadTokens     int `toml:"max_lookahead_tokens"`
	MaxRecoveryScanTokens  int `toml:"max_recovery_scan_tokens"`
	MaxErrorHistory        int `toml:"max_error_history"`

	MaxGlobalSymbols         int `toml:"max_global_symbols"`
	MaxLocalSymbolsPerCtn    int `toml:"max_local_symbols_per_ctn"`
	MaxElementsPerSymbol     int `toml:"max_elements_per_symbol"`
	MaxCtnScopes             int `toml:"max_ctn_scopes"`
	MaxSymbolContextDepth    int `toml:"max_symbol_context_depth"`

	MaxReferenceDepth  int `toml:"max_reference_depth"`
	MaxCycleLength     int `toml:"max_cycle_length"`
	MaxReportedCycles  int `toml:"max_reported_cycles"`

	MaxSemanticErrors          int `toml:"max_semantic_errors"`
	MaxRuntimeOperationParams  int `toml:"max_runtime_operation_parameters"`
	MaxFilterStateReferences   int `toml:"max_filter_state_references"`
	MaxSetOperationOperands    int `toml:"max_set_operation_operands"`
	MaxCyclePathLength         int `toml:"max_cycle_path_length"`

	MaxRecordNestingDepth int `toml:"max_record_nesting_depth"`

	LogEventBufferCapacity int   `toml:"log_event_buffer_capacity"`
	MaxLogMessageLength    int   `toml:"max_log_message_length"`
	CommandTimeoutSeconds  int   `toml:"command_timeout_seconds"`
	MemoryAlertThreshold   int64 `toml:"memory_alert_threshold"`
	MaxProcessingSeconds   int   `toml:"max_processing_seconds"`
}

// Ceilings is the absolute, non-negotiable upper bound for every field a
// loaded profile must not exceed: spec.md §5 names MAX_FILE_SIZE <= 1 GB,
// MAX_BATCH_MEMORY <= 10 GB, MAX_PROCESSING_TIME <= 1 h explicitly; the rest
// follow the same "generous absolute ceiling, strict production default"
// shape.
var Ceilings = Profile{
	MaxFileSize:           1 << 30, // 1 GiB
	MaxTokenCount:         2_000_000,
	MaxIdentifierLength:   4096,
	MaxStringSize:         16 << 20,
	MaxCommentLength:      1 << 20,
	MaxStringNestingDepth: 64,

	MaxParseDepth:         4096,
	MaxLookaheadTokens:    64,
	MaxRecoveryScanTokens: 8192,
	MaxErrorHistory:       10_000,

	MaxGlobalSymbols:      1_000_000,
	MaxLocalSymbolsPerCtn: 10_000,
	MaxElementsPerSymbol:  100_000,
	MaxCtnScopes:          1_000_000,
	MaxSymbolContextDepth: 4096,

	MaxReferenceDepth: 4096,
	MaxCycleLength:    4096,
	MaxReportedCycles: 10_000,

	MaxSemanticErrors:         100_000,
	MaxRuntimeOperationParams: 1024,
	MaxFilterStateReferences:  10_000,
	MaxSetOperationOperands:   10_000,
	MaxCyclePathLength:        4096,

	MaxRecordNestingDepth: 256,

	LogEventBufferCapacity: 1_000_000,
	MaxLogMessageLength:    1 << 20,
	CommandTimeoutSeconds:  3600,
	MemoryAlertThreshold:   10 << 30, // 10 GiB
	MaxProcessingSeconds:   3600,     // 1 hour
}

// Default is the production profile shipped when no TOML override is given.
// It is intentionally stricter than Ceilings across the board.
var Default = Profile{
	MaxFileSize:           4 << 20, // 4 MiB
	MaxTokenCount:         200_000,
	MaxIdentifierLength:   256,
	MaxStringSize:         1 << 20,
	MaxCommentLength:      64 << 10,
	MaxStringNestingDepth: 10,

	MaxParseDepth:         256,
	MaxLookaheadTokens:    8,
	MaxRecoveryScanTokens: 512,
	MaxErrorHistory:       500,

	MaxGlobalSymbols:      10_000,
	MaxLocalSymbolsPerCtn: 64,
	MaxElementsPerSymbol:  1_000,
	MaxCtnScopes:          50_000,
	MaxSymbolContextDepth: 64,

	MaxReferenceDepth: 128,
	MaxCycleLength:    32,
	MaxReportedCycles: 50,

	MaxSemanticErrors:         1_000,
	MaxRuntimeOperationParams: 16,
	MaxFilterStateReferences:  64,
	MaxSetOperationOperands:   64,
	MaxCyclePathLength:        32,

	MaxRecordNestingDepth: 10,

	LogEventBufferCapacity: 10_000,
	MaxLogMessageLength:    4096,
	CommandTimeoutSeconds:  5,
	MemoryAlertThreshold:   512 << 20, // 512 MiB
	MaxProcessingSeconds:   600,       // 10 minutes
}

// Validate rejects any field that exceeds its absolute ceiling. Build-time
// configuration errors like this one are, per spec.md §7, one of the only
// two categories of fatal error in the whole system.
func (p Profile) Validate() error {
	type bound struct {
		name          string
		value, ceiling int64
	}
	bounds := []bound{
		{"max_file_size", p.MaxFileSize, Ceilings.MaxFileSize},
		{"max_token_count", int64(p.MaxTokenCount), int64(Ceilings.MaxTokenCount)},
		{"max_identifier_length", int64(p.MaxIdentifierLength), int64(Ceilings.MaxIdentifierLength)},
		{"max_string_size", int64(p.MaxStringSize), int64(Ceilings.MaxStringSize)},
		{"max_comment_length", int64(p.MaxCommentLength), int64(Ceilings.MaxCommentLength)},
		{"max_string_nesting_depth", int64(p.MaxStringNestingDepth), int64(Ceilings.MaxStringNestingDepth)},
		{"max_parse_depth", int64(p.MaxParseDepth), int64(Ceilings.MaxParseDepth)},
		{"max_lookahead_tokens", int64(p.MaxLookaheadTokens), int64(Ceilings.MaxLookaheadTokens)},
		{"max_recovery_scan_tokens", int64(p.MaxRecoveryScanTokens), int64(Ceilings.MaxRecoveryScanTokens)},
		{"max_error_history", int64(p.MaxErrorHistory), int64(Ceilings.MaxErrorHistory)},
		{"max_global_symbols", int64(p.MaxGlobalSymbols), int64(Ceilings.MaxGlobalSymbols)},
		{"max_local_symbols_per_ctn", int64(p.MaxLocalSymbolsPerCtn), int64(Ceilings.MaxLocalSymbolsPerCtn)},
		{"max_elements_per_symbol", int64(p.MaxElementsPerSymbol), int64(Ceilings.MaxElementsPerSymbol)},
		{"max_ctn_scopes", int64(p.MaxCtnScopes), int64(Ceilings.MaxCtnScopes)},
		{"max_symbol_context_depth", int64(p.MaxSymbolContextDepth), int64(Ceilings.MaxSymbolContextDepth)},
		{"max_reference_depth", int64(p.MaxReferenceDepth), int64(Ceilings.MaxReferenceDepth)},
		{"max_cycle_length", int64(p.MaxCycleLength), int64(Ceilings.MaxCycleLength)},
		{"max_reported_cycles", int64(p.MaxReportedCycles), int64(Ceilings.MaxReportedCycles)},
		{"max_semantic_errors", int64(p.MaxSemanticErrors), int64(Ceilings.MaxSemanticErrors)},
		{"max_runtime_operation_parameters", int64(p.MaxRuntimeOperationParams), int64(Ceilings.MaxRuntimeOperationParams)},
		{"max_filter_state_references", int64(p.MaxFilterStateReferences), int64(Ceilings.MaxFilterStateReferences)},
		{"max_set_operation_operands", int64(p.MaxSetOperationOperands), int64(Ceilings.MaxSetOperationOperands)},
		{"max_cycle_path_length", int64(p.MaxCyclePathLength), int64(Ceilings.MaxCyclePathLength)},
		{"max_record_nesting_depth", int64(p.MaxRecordNestingDepth), int64(Ceilings.MaxRecordNestingDepth)},
		{"log_event_buffer_capacity", int64(p.LogEventBufferCapacity), int64(Ceilings.LogEventBufferCapacity)},
		{"max_log_message_length", int64(p.MaxLogMessageLength), int64(Ceilings.MaxLogMessageLength)},
		{"command_timeout_seconds", int64(p.CommandTimeoutSeconds), int64(Ceilings.CommandTimeoutSeconds)},
		{"memory_alert_threshold", p.MemoryAlertThreshold, Ceilings.MemoryAlertThreshold},
		{"max_processing_seconds", int64(p.MaxProcessingSeconds), int64(Ceilings.MaxProcessingSeconds)},
	}
	for _, b := range bounds {
		if b.value <= 0 {
			return fmt.Errorf("limits: %s must be positive, got %d", b.name, b.value)
		}
		if b.value > b.ceiling {
			return fmt.Errorf("limits: %s (%d) exceeds absolute ceiling (%d)", b.name, b.value, b.ceiling)
		}
	}
	return nil
}

// Load reads a TOML profile from path, overlaying it on Default (any field
// the file omits keeps its Default value, following the same
// defaults-then-overlay shape as the teacher's config.Load), and validates
// the result against Ceilings.
func Load(path string) (Profile, error) {
	profile := Default
	if path == "" {
		return profile, nil
	}
	if _, err := toml.DecodeFile(path, &profile); err != nil {
		return Profile{}, fmt.Errorf("limits: decode %q: %w", path, err)
	}
	if err := profile.Validate(); err != nil {
		return Profile{}, err
	}
	return profile, nil
}
