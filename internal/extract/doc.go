// Package extract holds the heuristic text extractors run over markdown
// bodies of skills and commands. Every extractor is a pure function that
// returns an empty result when nothing matches; none of them share state,
// so they can run in any order and be tested in isolation. Analyze runs the
// whole battery and assembles a catalog.Insights.
package extract
