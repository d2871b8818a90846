package session

// Shopee DOM scripts and selectors.
// The captcha widget structure (#NEW_CAPTCHA) and the anti-bot
// interstitial change rarely but silently - update these when solving
// breaks.

// widgetPresentJS checks for the slider handle, the one element every
// usable widget has.
const widgetPresentJS = `!!document.querySelector('#sliderContainer')`

// widgetBoundsJS returns the combined bounding box of the captcha
// container and the slider, or null if either is missing. This is the
// region cropped out of the screenshot for the solving service.
const widgetBoundsJS = `
(() => {
	const captcha = document.querySelector('#NEW_CAPTCHA');
	const slider = document.querySelector('#sliderContainer');
	if (!captcha || !slider) return null;

	const cr = captcha.getBoundingClientRect();
	const sr = slider.getBoundingClientRect();

	const x = Math.min(cr.x, sr.x);
	const y = Math.min(cr.y, sr.y);
	const right = Math.max(cr.x + cr.width, sr.x + sr.width);
	const bottom = Math.max(cr.y + cr.height, sr.y + sr.height);

	return {x: x, y: y, width: right - x, height: bottom - y};
})()`

// widgetLayoutJS returns the live geometry of the widget's sub-elements,
// or null if any required piece is missing. The background image is
// identified as the first img wider than 100px; the puzzle piece falls
// back to a typical 44px width when its element is absent.
const widgetLayoutJS = `
(() => {
	const slider = document.querySelector('#sliderContainer');
	if (!slider) return null;
	const captcha = document.querySelector('#NEW_CAPTCHA');
	if (!captcha) return null;
	const imgs = captcha.querySelectorAll('img');
	let bgImg = null;
	for (const img of imgs) {
		const r = img.getBoundingClientRect();
		if (r.width > 100) { bgImg = img; break; }
	}
	if (!bgImg) return null;
	const piece = document.querySelector('#puzzleImgComponent');
	const sr = slider.getBoundingClientRect();
	const ir = bgImg.getBoundingClientRect();
	const pr = piece ? piece.getBoundingClientRect() : {width: 44};
	const tr = slider.parentElement.getBoundingClientRect();
	return {
		slider_x: sr.x, slider_y: sr.y + sr.height / 2, slider_w: sr.width,
		img_x: ir.x, img_y: ir.y, img_w: ir.width,
		piece_w: pr.width, track_w: tr.width, track_x: tr.x,
	};
})()`

// dismissModalsJS closes Shopee's overlays that can cover the captcha:
// the popup close button, modal overlays, and the language selector.
const dismissModalsJS = `
(() => {
	const modal = document.querySelector('.shopee-popup__close-btn');
	if (modal) modal.click();

	const overlay = document.querySelector('.shopee-modal__overlay');
	if (overlay) overlay.click();

	for (const btn of document.querySelectorAll('button')) {
		if (btn.textContent.trim() === 'English') {
			btn.click();
			break;
		}
	}
})()`

// keepaliveJS wiggles the pointer over the widget so the site treats
// the session as active while we wait on the solving service.
const keepaliveJS = `
(() => {
	const captcha = document.querySelector('#NEW_CAPTCHA');
	const slider = document.querySelector('#sliderContainer');
	if (!captcha) return;

	const rect = captcha.getBoundingClientRect();
	const x = rect.x + rect.width / 2 + (Math.random() - 0.5) * 40;
	const y = rect.y + rect.height / 2 + (Math.random() - 0.5) * 20;
	document.dispatchEvent(new MouseEvent('mousemove', {
		clientX: x, clientY: y, bubbles: true, cancelable: true
	}));

	if (slider) {
		const sr = slider.getBoundingClientRect();
		slider.dispatchEvent(new MouseEvent('mouseover', {
			clientX: sr.x + sr.width / 2, clientY: sr.y + sr.height / 2,
			bubbles: true, cancelable: true
		}));
	}
})()`

// verificationTextJS reads the text that identifies the anti-bot
// interstitial: the page h1, falling back to the document title.
const verificationTextJS = `
(() => {
	const h1 = document.querySelector('h1');
	return (h1 && h1.innerText) || document.title || '';
})()`
