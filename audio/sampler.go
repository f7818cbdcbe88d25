package audio

import (
	"github.com/gopxl/beep"

	"github.com/lixenwraith/ricochet/dsp"
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/patch"
	"github.com/lixenwraith/ricochet/state"
	"github.com/lixenwraith/ricochet/vmath"
)

// Playback-rate bounds for pitched samples
const (
	minRate = 0.125
	maxRate = 8.0
)

// playbackRate converts a target pitch into a resampling ratio
func playbackRate(target, base float64) float64 {
	return vmath.Clamp(vmath.SafeDiv(target, base), minRate, maxRate)
}

// stutterRepeats returns how many times the head loops, 0 below the motion threshold
func stutterRepeats(motion float64) int {
	if motion <= parameter.StutterMotion {
		return 0
	}
	t := (motion - parameter.StutterMotion) / (1 - parameter.StutterMotion)
	return 2 + int(t*float64(parameter.MaxStutterRepeats-2))
}

// newSampler plays a bank sample pitched by playback rate, stuttering its head when motion is high
func newSampler(sr, freq, velocity float64, smp *Sample, cfg patch.InstrumentConfig, vis state.Visual) beep.Streamer {
	length := smp.Buffer.Len()
	var src beep.Streamer = smp.Buffer.Streamer(0, length)

	if reps := stutterRepeats(vis.Motion); reps > 0 {
		seg := min(int(parameter.StutterLength.Seconds()*sr), length)
		src = beep.Seq(
			beep.Loop(reps, smp.Buffer.Streamer(0, seg)),
			smp.Buffer.Streamer(seg, length),
		)
	}

	rate := playbackRate(freq, smp.BaseFreq)
	if rate != 1 {
		src = beep.ResampleRatio(resampleQuality, rate, src)
	}

	env := dsp.NewEnvelope(sr, cfg.Attack, cfg.Decay, 1, cfg.Release)
	env.Hold = int(float64(length)/rate) + 1
	return newShaped(src, env, velocity)
}
