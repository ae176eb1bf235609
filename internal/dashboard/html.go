package dashboard

const explorerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>InsightBot</title>
    <style>
        html { box-sizing: border-box; }
        *, *:before, *:after { box-sizing: inherit; }
        body { font-family: Tahoma, Verdana, 'Segoe UI', Arial, sans-serif; background: #fff; margin: 0; padding: 0; }
        .xp-window { background: #ece9d8; border: 2px solid #000080; border-radius: 6px; width: 800px; max-width: 98vw; margin: 40px auto 0 auto; box-shadow: 0 0 24px #333; }
        .xp-titlebar { background: linear-gradient(to right, #0a246a 0%, #3a6ea5 100%); color: #fff; padding: 8px 16px; font-size: 22px; font-weight: bold; border-top-left-radius: 4px; border-top-right-radius: 4px; letter-spacing: 1px; border-bottom: 2px solid #000080; display: flex; align-items: center; }
        .xp-titlebar a { color: inherit; text-decoration: none; flex: 1; }
        .xp-content { padding: 24px 32px 32px 32px; }
        .subtitle { color: #0a246a; margin-bottom: 18px; font-size: 15px; }
        form { margin-bottom: 24px; background: #d4d0c8; padding: 12px 16px; border-radius: 4px; border: 1px solid #b5b5b5; box-shadow: 1px 1px 0 #fff inset; display: flex; align-items: center; gap: 10px; flex-wrap: wrap; }
        input[type=text] { flex: 1 1 220px; min-width: 180px; padding: 6px; font-size: 15px; border: 1px solid #7f9db9; border-radius: 2px; background: #fff; color: #222; }
        button { padding: 6px 18px; font-size: 15px; background: linear-gradient(to bottom, #e4e4e4 0%, #b5b5b5 100%); color: #222; border: 1px solid #7f9db9; border-radius: 2px; cursor: pointer; box-shadow: 1px 1px 0 #fff inset; }
        button:hover { background: #316ac5; color: #fff; }
        ul { list-style: none; padding: 0; }
        li { background: #fff; margin-bottom: 10px; padding: 10px 16px; border-radius: 3px; border: 1px solid #b5b5b5; font-size: 15px; }
        .source { color: #0a246a; font-size: 12px; margin-top: 2px; }
        .loading, .notice { color: #e67e22; background: #fff8e1; border: 1px solid #e67e22; padding: 8px 14px; border-radius: 3px; margin-bottom: 18px; font-size: 15px; }
        h2 { color: #0a246a; margin-top: 24px; font-size: 18px; border-bottom: 1px solid #b5b5b5; padding-bottom: 4px; }
        .xp-footer { background: #d4d0c8; color: #222; padding: 8px 16px; border-top: 1px solid #b5b5b5; border-bottom-left-radius: 4px; border-bottom-right-radius: 4px; font-size: 13px; text-align: right; }
        a { color: #0a246a; text-decoration: underline; }
        a:hover { color: #316ac5; }
        #show-more-btn { display: block; margin: 0 auto; }
        #article-modal { display: none; position: fixed; z-index: 1000; left: 0; top: 0; width: 100vw; height: 100vh; background: rgba(0,0,0,0.45); }
        #article-modal .modal-content { background: #ece9d8; border: 2px solid #000080; border-radius: 8px; width: 600px; max-width: 96vw; margin: 60px auto; padding: 32px; position: relative; box-shadow: 0 0 24px #333; }
        #article-modal .close-btn { position: absolute; top: 12px; right: 18px; font-size: 22px; color: #0a246a; cursor: pointer; }
        #modal-title { color: #0a246a; margin-top: 0; }
        #modal-details { font-size: 14px; color: #333; margin-bottom: 16px; }
        #modal-body { font-size: 16px; color: #222; background: #fff; border-radius: 4px; padding: 18px; border: 1px solid #b5b5b5; max-height: 350px; overflow: auto; white-space: pre-wrap; }
        #modal-original-link { display: inline-block; margin-top: 18px; background: #0a246a; color: #fff !important; padding: 7px 18px; border-radius: 3px; text-decoration: none; font-weight: bold; font-size: 15px; border: 1px solid #316ac5; }
        #modal-original-link:hover { background: #316ac5; }
        @media (max-width: 600px) {
            .xp-content { padding: 10px 2vw 20px 2vw; }
            #article-modal .modal-content { width: 99vw; padding: 6vw 2vw; }
            form { flex-direction: column; gap: 8px; }
            input[type=text], button { width: 100%; min-width: 0; }
        }
    </style>
    <script>
        function capitalize(s) {
            s = s || '';
            return s.charAt(0).toUpperCase() + s.slice(1).toLowerCase();
        }
        function showLoading() {
            document.getElementById('loading').style.display = 'block';
        }
        function articleItem(art, withSource) {
            var li = document.createElement('li');
            var a = document.createElement('a');
            a.href = '#';
            a.className = 'article-link';
            a.setAttribute('data-url', art.url);
            a.textContent = art.title;
            var meta = document.createElement('div');
            meta.className = 'source';
            var parts = [];
            if (withSource) parts.push(art.source);
            parts.push((art.language || '').toUpperCase());
            parts.push(capitalize(art.sentiment));
            meta.textContent = parts.join(' | ');
            li.appendChild(a);
            li.appendChild(meta);
            return li;
        }
        function showModal(article) {
            document.getElementById('modal-title').textContent = article.title;
            document.getElementById('modal-body').textContent = article.body;
            var details = document.getElementById('modal-details');
            details.textContent = '';
            var rows = [
                ['Source', article.source],
                ['Language', (article.language || '').toUpperCase()],
                ['Sentiment', capitalize(article.sentiment)]
            ];
            if (article.author) rows.push(['Author', article.author]);
            if (article.date) rows.push(['Date', article.date]);
            rows.forEach(function(row) {
                var b = document.createElement('b');
                b.textContent = row[0] + ': ';
                details.appendChild(b);
                details.appendChild(document.createTextNode(row[1]));
                details.appendChild(document.createElement('br'));
            });
            document.getElementById('modal-original-link').href = article.url;
            document.getElementById('article-modal').style.display = 'block';
        }
        function hideModal() {
            document.getElementById('article-modal').style.display = 'none';
        }
        function attachModalEvents() {
            document.querySelectorAll('.article-link').forEach(function(link) {
                link.onclick = function(e) {
                    e.preventDefault();
                    fetch('/article_details?url=' + encodeURIComponent(this.getAttribute('data-url')))
                        .then(function(resp) { return resp.json(); })
                        .then(function(data) { if (!data.error) showModal(data); });
                };
            });
        }
        document.addEventListener('DOMContentLoaded', attachModalEvents);
        window.onclick = function(event) {
            if (event.target == document.getElementById('article-modal')) hideModal();
        };
        document.addEventListener('keydown', function(e) {
            if (e.key === 'Escape') hideModal();
        });

        var polling = false;
        function showNotice(text) {
            var notice = document.getElementById('notice');
            if (!notice) {
                notice = document.createElement('div');
                notice.id = 'notice';
                notice.className = 'notice';
                var loading = document.getElementById('loading');
                loading.parentNode.insertBefore(notice, loading);
            }
            notice.textContent = text;
        }
        function refreshArticles(domain) {
            fetch('/latest_articles?domain=' + encodeURIComponent(domain))
                .then(function(resp) { return resp.json(); })
                .then(function(data) {
                    var list = document.getElementById('dynamic-article-list');
                    if (!list) return;
                    list.textContent = '';
                    (data.articles || []).forEach(function(art) {
                        list.appendChild(articleItem(art, false));
                    });
                    attachModalEvents();
                });
        }
        function finishJob(domain, job) {
            polling = false;
            document.getElementById('loading').style.display = 'none';
            refreshArticles(domain);
            if (job.status === 'failed') {
                showNotice('Fetch failed: ' + (job.error || 'unknown error'));
            } else if (job.status !== 'done') {
                showNotice(job.error || 'Fetch status unavailable');
            }
        }
        function checkJob(domain, jobID) {
            fetch('/api/jobs/' + encodeURIComponent(jobID))
                .then(function(resp) { return resp.json(); })
                .then(function(job) {
                    if (job.status === 'done' || job.status === 'failed' || job.error) {
                        finishJob(domain, job);
                    }
                });
        }
        function pollForArticles(domain, jobID) {
            if (!domain) return;
            polling = true;
            function tick() {
                if (!polling) return;
                refreshArticles(domain);
                if (jobID) checkJob(domain, jobID);
                setTimeout(tick, 3000);
            }
            tick();
        }
        function stopPolling() { polling = false; }
    </script>
</head>
<body>
    <div class="xp-window">
        <div class="xp-titlebar">
            <a href="/">InsightBot Article Explorer</a>
        </div>
        <div class="xp-content">
            <div class="subtitle">Search for new articles from a website or view stored articles for any site.</div>
            <form method="post" action="/" onsubmit="showLoading()">
                <input type="text" name="site_url" placeholder="Enter website URL (e.g. https://www.techradar.com/)" value="{{.SiteURL}}">
                <button type="submit" name="action" value="fetch">Fetch New Articles</button>
                <button type="submit" name="action" value="show">Show Stored Only</button>
                <select name="filter_source" onchange="this.form.submit()">
                    <option value="">Filter by website...</option>
                    {{- range .Sources}}
                    <option value="{{.}}"{{if eq . $.SelectedSource}} selected{{end}}>{{.}}</option>
                    {{- end}}
                </select>
            </form>
            {{- if .Notice}}
            <div class="notice" id="notice">{{.Notice}}</div>
            {{- end}}
            <div id="loading" class="loading" style="display:{{if .Loading}}block{{else}}none{{end}};">
                Please wait...
            </div>
            {{- if or .Articles (and .Loading .Domain)}}
            <h2>Articles{{if .Domain}} from {{.Domain}}{{end}}</h2>
            <ul id="dynamic-article-list">
                {{- range .Articles}}
                <li>
                    <a href="#" class="article-link" data-url="{{.URL}}">{{.Title}}</a>
                    <div class="source">{{upper .Language}} | {{capitalize .Sentiment}}</div>
                </li>
                {{- end}}
            </ul>
            <script>
            {{- if and .Loading .Domain}}
                pollForArticles({{.Domain}}, {{.JobID}});
            {{- else}}
                stopPolling();
            {{- end}}
            </script>
            {{- else if .Domain}}
            <p>No articles found for this site.</p>
            {{- else}}
            <h2>All Articles</h2>
            <ul id="article-list">
                {{- range .AllArticles}}
                <li>
                    <a href="#" class="article-link" data-url="{{.URL}}">{{.Title}}</a>
                    <div class="source">{{.Source}} | {{upper .Language}} | {{capitalize .Sentiment}}</div>
                </li>
                {{- end}}
            </ul>
            <button id="show-more-btn">Show More</button>
            <script>
                var offset = {{.InitialCount}};
                document.getElementById('show-more-btn').onclick = function() {
                    fetch('/more_articles?offset=' + offset)
                        .then(function(resp) { return resp.json(); })
                        .then(function(data) {
                            var list = document.getElementById('article-list');
                            (data.articles || []).forEach(function(art) {
                                list.appendChild(articleItem(art, true));
                            });
                            offset += data.count;
                            if (!data.has_more) {
                                document.getElementById('show-more-btn').style.display = 'none';
                            }
                            attachModalEvents();
                        });
                };
            </script>
            {{- end}}
        </div>
        <div class="xp-footer">
            InsightBot {{.Version}}
        </div>
    </div>
    <div id="article-modal">
        <div class="modal-content">
            <span class="close-btn" onclick="hideModal()">&times;</span>
            <h2 id="modal-title"></h2>
            <div id="modal-details"></div>
            <div id="modal-body"></div>
            <a id="modal-original-link" href="#" target="_blank" rel="noopener">View Original Article</a>
        </div>
    </div>
</body>
</html>
`
