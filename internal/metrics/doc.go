// Package metrics extracts time-domain performance figures from a sampled
// step response.
//
// [Compute] scans the samples once per figure:
//
//   - rise time: first 10% crossing to first 90% crossing
//   - settling time: first sample inside the 2% band around steady state
//   - peak time: first sample at the global maximum
//   - overshoot: peak above steady state, in percent
//
// Rise and settling time are [Optional]: a response that never crosses a
// threshold or never enters the band yields [Undefined] rather than an
// error. Malformed input (empty, mismatched lengths, time not strictly
// increasing, NaN or Inf) is rejected with an error wrapping one of the
// package sentinels.
package metrics
