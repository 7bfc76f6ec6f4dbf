package scraper

import "github.com/go-rod/rod"

// scrollScript advances the page's scroll position in fixed increments
// until maxScroll is reached or no native scroll event has been observed
// for idleMs of wall-clock time. The idle clock resets on every scroll
// event, including ones this routine did not cause (lazy-load reflows),
// so a page that keeps revealing content keeps scrolling. A page that
// never scrolls goes idle almost immediately after the first increment.
//
// Runs entirely inside the page's execution context; from the pipeline's
// point of view it is a single suspend-until-resolved call.
const scrollScript = `async (maxScroll, step, tickMs, idleMs) => {
	await new Promise((resolve) => {
		let lastScrollTime = Date.now();
		let stopped = false;
		window.addEventListener('scroll', () => {
			lastScrollTime = Date.now();
			stopped = false;
		});
		const tick = () => {
			if (window.scrollY >= maxScroll || stopped) {
				resolve();
				return;
			}
			window.scrollBy(0, step);
			if (Date.now() - lastScrollTime > idleMs) {
				stopped = true;
			}
			setTimeout(tick, tickMs);
		};
		tick();
	});
}`

// stabilizeScroll drives the page to scroll-stability, triggering any
// lazy-loading the page performs on the way down.
func (s *Scraper) stabilizeScroll(p *rod.Page, maxScroll int) error {
	_, err := p.Eval(scrollScript,
		maxScroll,
		s.extractCfg.ScrollStep,
		int(s.extractCfg.ScrollTick.Milliseconds()),
		int(s.extractCfg.ScrollIdle.Milliseconds()),
	)
	return err
}
