package ytdlp

import (
	"github.com/ytget/mediadl/internal/model"
)

// ResolveHardwareClass applies the user preference to the detected class.
// With hardware decoding disabled the result is always HardwareCPU.
func ResolveHardwareClass(enabled bool, detected model.HardwareClass) (model.HardwareClass, error) {
	switch detected {
	case "":
		detected = model.HardwareCPU
	case model.HardwareCPU, model.HardwareNvidia, model.HardwareAMD, model.HardwareIntel, model.HardwareApple:
	default:
		return "", configError("hardware class", string(detected), "unknown encoder family")
	}
	if !enabled {
		return model.HardwareCPU, nil
	}
	return detected, nil
}

// HardwareEncoder returns the H.264 encoder for a class, empty for HardwareCPU
func HardwareEncoder(hw model.HardwareClass) string {
	switch hw {
	case model.HardwareNvidia:
		return "h264_nvenc"
	case model.HardwareAMD:
		return "h264_amf"
	case model.HardwareIntel:
		return "h264_qsv"
	case model.HardwareApple:
		return "h264_videotoolbox"
	default:
		return ""
	}
}

// clipRateControl returns constant-quality settings for cut segments
func clipRateControl(hw model.HardwareClass) string {
	switch hw {
	case model.HardwareNvidia:
		// forced IDR gives the clip a clean first keyframe
		return "-rc:v vbr -cq:v 19 -preset p4 -forced-idr 1"
	case model.HardwareAMD:
		return "-rc cqp -qp_i 22 -qp_p 22"
	case model.HardwareIntel:
		return "-global_quality 20"
	case model.HardwareApple:
		return "-q:v 65"
	default:
		return ""
	}
}

// hardwareActive reports whether the GPU encoder arguments apply to this request.
// A forced transcode already picks its own encoder through VideoConvertor.
func hardwareActive(r *request) bool {
	if r.hw == model.HardwareCPU || r.format != model.FormatVideo {
		return false
	}
	return !(r.opts.ForceTranscode && r.codec != model.VideoCodecAuto)
}

func hardwareArgs(r *request, a *argList) error {
	if !hardwareActive(r) {
		return nil
	}
	encoder := HardwareEncoder(r.hw)
	if encoder == "" {
		return nil
	}

	hwArgs := "-c:v " + encoder
	if r.clip {
		hwArgs += " " + clipRateControl(r.hw)
	}
	a.addFFmpeg(hwArgs)
	return nil
}
