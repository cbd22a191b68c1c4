package renderer

// Extraction scripts evaluated inside rendered pages. The catalog site
// is a SPA; all of these read the DOM after client-side rendering.

// listingScript collects film links from a listing page, deduplicated by
// canonical URL (query string stripped), keeping the first usable title.
const listingScript = `(() => {
	const anchors = Array.from(document.querySelectorAll('a[href*="/film/"]'));
	const seen = new Map();
	for (const a of anchors) {
		const href = a.getAttribute('href') || '';
		if (!href.includes('/film/')) continue;

		const textCandidates = [
			a.innerText,
			a.getAttribute('aria-label'),
			a.getAttribute('title'),
			a.querySelector('[data-title]')?.getAttribute('data-title'),
			a.querySelector('.movie-title,.movie__title,.film-title,.film__title')?.innerText,
			a.querySelector('img')?.getAttribute('alt'),
			a.querySelector('img')?.getAttribute('title'),
		];

		let t = '';
		for (const c of textCandidates) {
			if (!c) continue;
			const s = String(c).trim();
			if (s.length >= 2) { t = s; break; }
		}
		if (!t || t.length < 2) continue;

		const u = href.startsWith('http') ? href : (location.origin + href);
		const base = u.split('?')[0];
		if (!seen.has(base)) seen.set(base, { title: t, url: base });
	}
	return Array.from(seen.values());
})()`

// dismissCookieScript removes the cookie consent overlay that blocks
// clicks on film pages.
const dismissCookieScript = `(() => {
	const ids = ["CybotCookiebotDialog", "CybotCookiebotDialogBodyUnderlay"];
	for (const id of ids) {
		const el = document.getElementById(id);
		if (el) el.remove();
	}
	if (document.body) document.body.style.overflow = "auto";
})()`

// expandDescriptionScript clicks the "read more" button when the
// description is collapsed.
const expandDescriptionScript = `(() => {
	const btn = document.querySelector('.b-movie-description__btn');
	if (btn) btn.click();
})()`

// descriptionScript extracts the film description, preferring the
// dedicated paragraph blocks and falling back to the whole block.
const descriptionScript = `(() => {
	const parts = Array.from(document.querySelectorAll('.b-movie-description__text'))
		.map(e => (e.innerText || '').trim())
		.filter(Boolean);
	if (parts.length) return parts.join('\n\n');
	const block = document.querySelector('.b-movie-description');
	return block ? (block.innerText || '') : '';
})()`

// scheduleScript extracts session slots from a film page scoped to one
// date. Field names match the session JSON shape.
const scheduleScript = `(() => {
	const items = Array.from(document.querySelectorAll('li[data-session-id]'));
	const out = [];
	for (const li of items) {
		const sessionId = li.getAttribute('data-session-id') || '';
		const timeEl = li.querySelector('p.l-tickets__item-time');
		const hallEl = li.querySelector('p.l-tickets__item-cinema');
		const infoEls = Array.from(li.querySelectorAll('p.l-tickets__item-info'));
		let info = '';
		for (const el of infoEls) {
			const t = (el.innerText || '').trim();
			if (t) { info = t; break; }
		}
		let purchase = '';
		const linkEl = li.querySelector('a[href]');
		if (linkEl) purchase = linkEl.getAttribute('href') || '';
		if (purchase.startsWith('/')) purchase = location.origin + purchase;
		if (purchase.startsWith('//')) purchase = 'https:' + purchase;

		let venueName = '';
		const dataWrap = li.closest('div[id^="data-"]');
		if (dataWrap && dataWrap.id) {
			venueName = dataWrap.id.replace(/^data-/, '').replace(/-/g, ' ').trim();
		}
		if (!venueName) {
			const titleEl = document.querySelector('a.b-entity-content__title, a.b-entity-content__link');
			if (titleEl) venueName = (titleEl.innerText || '').trim();
		}
		out.push({
			session_id: sessionId,
			time: timeEl ? (timeEl.innerText || '').trim() : '',
			hall: hallEl ? (hallEl.innerText || '').trim() : '',
			info: info,
			venue_name: venueName,
			purchase_url: purchase,
		});
	}
	return out;
})()`
