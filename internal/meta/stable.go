package meta

// stableFields declares the reproducibility contract for the record. Update
// it whenever the record shape changes.
func stableFields() StableFields {
	return StableFields{
		Core: []string{
			"schema_version",
			"pipeline.repo",
			"input.path",
			"input.size_bytes",
			"input.ext",
			"params.sample_rate",
			"params.channels",
			"params.bit_depth",
			"params.normalize",
			"params.normalize_mode",
			"params.normalize_config",
			"params.ffmpeg_extra_args",
			"params.audio_stream_index",
			"params.audio_language",
			"params_sources.sample_rate",
			"params_sources.channels",
			"params_sources.bit_depth",
			"params_sources.normalize",
			"params_sources.normalize_mode",
			"params_sources.normalize_config",
			"params_sources.ffmpeg_extra_args",
			"params_sources.audio_stream_index",
			"params_sources.audio_language",
			"output.workdir",
			"output.work_id",
			"output.work_key",
			"output.audio_wav",
			"output.meta_json",
			"output.convert_log",
			"output.expected_audio.codec",
			"output.expected_audio.sample_rate",
			"output.expected_audio.channels",
			"output.expected_audio.bit_depth",
			"integrity.params_digest",
		},
		NonCore: []string{
			"created_at",
			"pipeline.repo_version",
			"input.abspath",
			"input.mtime_epoch",
			"input.sha256",
			"tooling.runtime",
			"probe.warnings",
			"probe.output_probe",
			"output.actual_audio",
			"integrity.output_audio_sha256",
			"errors",
			"warnings",
			"execution",
		},
		Notes: "Core fields drive reproducibility (workdir-relative paths, params, expected_audio, params digest). " +
			"Non-core fields may change across runs or machines (timestamps, absolute paths, platform, tool builds). " +
			"Actual audio attributes are captured to validate the conversion but are derived from the prober and may vary slightly across ffmpeg builds. " +
			"output.work_id/work_key track the deterministic workdir naming based on relative path plus byte size in batch runs. " +
			"Enabling normalize changes the waveform; reproducibility then depends on using the same ffmpeg build with the fixed loudnorm parameters.",
	}
}
