package locus

// EffectFilterIterator wraps an interval iteration over variant annotations
// and applies the requested-effect post-filter: an annotation passes when no
// effects were requested, or when at least one of its transcript effects
// matches a requested effect by ontology ID. Passing annotations have their
// transcript-effect list rewritten to the matching effects only.
//
// Filtered-out annotations are skipped by pulling more from the base
// iterator, so page tokens keep reflecting the base iteration exactly.
type EffectFilterIterator struct {
	base    *IntervalIterator[*VariantAnnotation]
	effects []*OntologyTerm
}

// NewEffectFilterIterator wraps base with the requested-effect filter. A nil
// or empty effects slice passes every annotation through unmodified.
func NewEffectFilterIterator(base *IntervalIterator[*VariantAnnotation], effects []*OntologyTerm) *EffectFilterIterator {
	return &EffectFilterIterator{base: base, effects: effects}
}

// Next returns the next annotation passing the filter, pulling from the base
// iterator until one passes or the base iterator is exhausted.
func (it *EffectFilterIterator) Next() (Pair[*VariantAnnotation], bool, error) {
	for {
		pair, ok, err := it.base.Next()
		if err != nil || !ok {
			return Pair[*VariantAnnotation]{}, false, err
		}
		if !it.annotationPasses(pair.Object) {
			continue
		}
		it.removeNonMatchingTranscriptEffects(pair.Object)
		return pair, true, nil
	}
}

// Close releases the base iterator's scan.
func (it *EffectFilterIterator) Close() error { return it.base.Close() }

// annotationPasses reports whether an annotation should be included.
func (it *EffectFilterIterator) annotationPasses(ann *VariantAnnotation) bool {
	if len(it.effects) == 0 {
		return true
	}
	for _, teff := range ann.TranscriptEffects {
		if it.transcriptEffectMatches(teff) {
			return true
		}
	}
	return false
}

// transcriptEffectMatches reports whether any of a transcript effect's terms
// match a requested effect.
func (it *EffectFilterIterator) transcriptEffectMatches(teff *TranscriptEffect) bool {
	for _, effect := range teff.Effects {
		if it.matchesAnyRequestedEffect(effect) {
			return true
		}
	}
	return false
}

// matchesAnyRequestedEffect matches by ontology ID. Requested effects with
// no ID never match.
func (it *EffectFilterIterator) matchesAnyRequestedEffect(effect *OntologyTerm) bool {
	for _, requested := range it.effects {
		if requested.ID != "" && requested.ID == effect.ID {
			return true
		}
	}
	return false
}

// removeNonMatchingTranscriptEffects rewrites the annotation's
// transcript-effect list in place to only the matching effects.
func (it *EffectFilterIterator) removeNonMatchingTranscriptEffects(ann *VariantAnnotation) {
	if len(it.effects) == 0 {
		return
	}
	matching := make([]*TranscriptEffect, 0, len(ann.TranscriptEffects))
	for _, teff := range ann.TranscriptEffects {
		if it.transcriptEffectMatches(teff) {
			matching = append(matching, teff)
		}
	}
	ann.TranscriptEffects = matching
}
