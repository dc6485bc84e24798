package domain

// TranscodeProfile describes one target rendition. Nominal targets only:
// actual output dimensions and duration come from probing the result, since
// aspect-ratio preservation may adjust them.
type TranscodeProfile struct {
	Quality string `json:"quality"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Bitrate string `json:"bitrate"`
	Fps     int    `json:"fps"`
	Codec   string `json:"codec"`
}

// DefaultProfiles is the stock rendition set used when none is configured.
func DefaultProfiles() []TranscodeProfile {
	return []TranscodeProfile{
		{Quality: "hd", Width: 1920, Height: 1080, Bitrate: "5000k", Fps: 30, Codec: "h264"},
		{Quality: "sd", Width: 1280, Height: 720, Bitrate: "2500k", Fps: 30, Codec: "h264"},
		{Quality: "mobile", Width: 640, Height: 360, Bitrate: "1000k", Fps: 30, Codec: "h264"},
	}
}

// ProfileQualities returns the quality tags of the given profile set.
func ProfileQualities(profiles []TranscodeProfile) []string {
	qualities := make([]string, len(profiles))
	for i, p := range profiles {
		qualities[i] = p.Quality
	}
	return qualities
}
